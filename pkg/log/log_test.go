// Copyright 2024 The Apex Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"strings"
	"testing"
)

type testWriter struct {
	lines []string
	fail  bool
}

func (w *testWriter) Write(bytes []byte) (int, error) {
	if w.fail {
		return 0, fmt.Errorf("simulated failure")
	}
	w.lines = append(w.lines, string(bytes))
	return len(bytes), nil
}

func TestDropMessages(t *testing.T) {
	tw := &testWriter{}
	w := Writer{Next: tw}
	if _, err := w.Write([]byte("line 1\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	tw.fail = true
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}
	if _, err := w.Write([]byte("error\n")); err == nil {
		t.Fatalf("Write should have failed")
	}

	tw.fail = false
	if _, err := w.Write([]byte("line 2\n")); err != nil {
		t.Fatalf("Write failed, err: %v", err)
	}

	if want := 3; len(tw.lines) != want {
		t.Fatalf("got %d lines, want %d: %q", len(tw.lines), want, tw.lines)
	}
	if got := tw.lines[1]; !strings.Contains(got, "Dropped 2 log messages") {
		t.Errorf("line 1: got %q, want dropped-message notice", got)
	}
	if got, want := tw.lines[2], "line 2\n"; got != want {
		t.Errorf("line 2: got %q, want %q", got, want)
	}
}

func TestLevels(t *testing.T) {
	tw := &testWriter{}
	l := &BasicLogger{Level: Info, Emitter: &Writer{Next: tw}}
	l.Debugf("dropped")
	l.Infof("kept")
	l.Warningf("kept")
	if want := 2; len(tw.lines) != want {
		t.Fatalf("got %d lines, want %d: %q", len(tw.lines), want, tw.lines)
	}
	if !l.IsLogging(Info) || l.IsLogging(Debug) {
		t.Errorf("IsLogging: got (Info=%v, Debug=%v), want (true, false)", l.IsLogging(Info), l.IsLogging(Debug))
	}
}
