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

package mm

import (
	"bytes"
	"testing"

	"github.com/bddrey/apex/pkg/errors/linuxerr"
	"github.com/bddrey/apex/pkg/hostarch"
)

func newTestAddressSpace(t *testing.T) *AddressSpace {
	t.Helper()
	as := NewAddressSpace(0x10000)
	// Two readable/writable pages with a hole between them, and a
	// read-only page above.
	if err := as.MapRegion(hostarch.AddrRange{Start: 0x1000, End: 0x3000}, hostarch.ReadWrite); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}
	if err := as.MapRegion(hostarch.AddrRange{Start: 0x4000, End: 0x5000}, hostarch.ReadWrite); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}
	if err := as.MapRegion(hostarch.AddrRange{Start: 0x5000, End: 0x6000}, hostarch.Read); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}
	return as
}

func TestCheckRegion(t *testing.T) {
	as := newTestAddressSpace(t)
	for _, test := range []struct {
		name   string
		addr   hostarch.Addr
		length uint64
		at     hostarch.AccessType
		want   bool
	}{
		{"inside single vma", 0x1100, 0x100, hostarch.ReadWrite, true},
		{"exact vma", 0x1000, 0x2000, hostarch.ReadWrite, true},
		{"zero length", 0x9000, 0, hostarch.ReadWrite, true},
		{"crosses into hole", 0x2800, 0x1000, hostarch.Read, false},
		{"entirely unmapped", 0x3000, 0x100, hostarch.Read, false},
		{"write to read-only", 0x5000, 0x100, hostarch.Write, false},
		{"read adjacent vmas", 0x4800, 0x1000, hostarch.Read, true},
		{"beyond window", 0xffff, 0x10000, hostarch.Read, false},
		{"length overflows", 0x1000, ^uint64(0), hostarch.Read, false},
	} {
		if got := as.CheckRegion(test.addr, test.length, test.at); got != test.want {
			t.Errorf("%s: CheckRegion(%#x, %#x, %v): got %v, want %v", test.name, test.addr, test.length, test.at, got, test.want)
		}
	}
}

func TestCopyOutPartial(t *testing.T) {
	as := newTestAddressSpace(t)
	src := make([]byte, 0x200)
	for i := range src {
		src[i] = 0xaa
	}
	// The last 0x100 bytes land in the hole at 0x3000.
	n, err := as.CopyOut(0x2f00, src)
	if wantN := 0x100; n != wantN || err != linuxerr.EFAULT {
		t.Errorf("CopyOut: got (%#x, %v), want (%#x, %v)", n, err, wantN, linuxerr.EFAULT)
	}
	if got := as.Bytes(hostarch.AddrRange{Start: 0x2f00, End: 0x3000}); !bytes.Equal(got, src[:0x100]) {
		t.Errorf("copied prefix not written")
	}
}

func TestCopyInPartial(t *testing.T) {
	as := newTestAddressSpace(t)
	copy(as.Bytes(hostarch.AddrRange{Start: 0x2f00, End: 0x3000}), bytes.Repeat([]byte{0x55}, 0x100))
	dst := make([]byte, 0x200)
	n, err := as.CopyIn(0x2f00, dst)
	if wantN := 0x100; n != wantN || err != linuxerr.EFAULT {
		t.Errorf("CopyIn: got (%#x, %v), want (%#x, %v)", n, err, wantN, linuxerr.EFAULT)
	}
	if !bytes.Equal(dst[:0x100], bytes.Repeat([]byte{0x55}, 0x100)) {
		t.Errorf("readable prefix not copied")
	}
}

func TestCopyInSpansAdjacentVMAs(t *testing.T) {
	as := newTestAddressSpace(t)
	copy(as.Bytes(hostarch.AddrRange{Start: 0x4f00, End: 0x5100}), bytes.Repeat([]byte{0x77}, 0x200))
	dst := make([]byte, 0x200)
	n, err := as.CopyIn(0x4f00, dst)
	if wantN := 0x200; n != wantN || err != nil {
		t.Errorf("CopyIn: got (%#x, %v), want (%#x, nil)", n, err, wantN)
	}
	if !bytes.Equal(dst, bytes.Repeat([]byte{0x77}, 0x200)) {
		t.Errorf("copy across vma boundary corrupted data")
	}
}

func TestZeroOut(t *testing.T) {
	as := newTestAddressSpace(t)
	copy(as.Bytes(hostarch.AddrRange{Start: 0x1000, End: 0x1100}), bytes.Repeat([]byte{0xff}, 0x100))
	n, err := as.ZeroOut(0x1000, 0x100)
	if wantN := int64(0x100); n != wantN || err != nil {
		t.Errorf("ZeroOut: got (%#x, %v), want (%#x, nil)", n, err, wantN)
	}
	if !bytes.Equal(as.Bytes(hostarch.AddrRange{Start: 0x1000, End: 0x1100}), make([]byte, 0x100)) {
		t.Errorf("region not zeroed")
	}
}

func TestStrings(t *testing.T) {
	as := newTestAddressSpace(t)
	copy(as.Bytes(hostarch.AddrRange{Start: 0x1000, End: 0x1010}), []byte("/etc/passwd\x00"))

	if !as.CheckString(0x1000, 4096) {
		t.Errorf("CheckString on a valid string: got false, want true")
	}
	s, err := as.CopyInString(0x1000, 4096)
	if err != nil || s != "/etc/passwd" {
		t.Errorf("CopyInString: got (%q, %v), want (%q, nil)", s, err, "/etc/passwd")
	}

	// Unterminated string running into the hole at 0x3000.
	copy(as.Bytes(hostarch.AddrRange{Start: 0x2ff0, End: 0x3000}), bytes.Repeat([]byte{'x'}, 0x10))
	if as.CheckString(0x2ff0, 4096) {
		t.Errorf("CheckString running off a mapping: got true, want false")
	}
	if _, err := as.CopyInString(0x2ff0, 4096); err != linuxerr.EFAULT {
		t.Errorf("CopyInString running off a mapping: got %v, want %v", err, linuxerr.EFAULT)
	}

	// Terminated, but not within maxLen.
	if _, err := as.CopyInString(0x1000, 4); err != linuxerr.ENAMETOOLONG {
		t.Errorf("CopyInString with short maxLen: got %v, want %v", err, linuxerr.ENAMETOOLONG)
	}
}

func TestUnmapSplitsVMA(t *testing.T) {
	as := newTestAddressSpace(t)
	as.UnmapRegion(hostarch.AddrRange{Start: 0x1800, End: 0x2800})
	if as.CheckRegion(0x1800, 1, hostarch.Read) {
		t.Errorf("unmapped middle still accessible")
	}
	if !as.CheckRegion(0x1000, 0x800, hostarch.ReadWrite) {
		t.Errorf("left fragment lost")
	}
	if !as.CheckRegion(0x2800, 0x800, hostarch.ReadWrite) {
		t.Errorf("right fragment lost")
	}
}

func TestProtectRegion(t *testing.T) {
	as := newTestAddressSpace(t)
	if err := as.ProtectRegion(hostarch.AddrRange{Start: 0x1800, End: 0x2000}, hostarch.Read); err != nil {
		t.Fatalf("ProtectRegion: %v", err)
	}
	if as.CheckRegion(0x1800, 0x100, hostarch.Write) {
		t.Errorf("write allowed after downgrade to read-only")
	}
	if !as.CheckRegion(0x1000, 0x800, hostarch.ReadWrite) {
		t.Errorf("untouched prefix lost write access")
	}
	// Ranges with unmapped gaps are rejected wholesale.
	if err := as.ProtectRegion(hostarch.AddrRange{Start: 0x2800, End: 0x3800}, hostarch.Read); err != linuxerr.ENOMEM {
		t.Errorf("ProtectRegion over a hole: got %v, want %v", err, linuxerr.ENOMEM)
	}
}

func TestBackstopIO(t *testing.T) {
	as := newTestAddressSpace(t)
	var fault FaultRecord
	bio := BackstopIO{AS: as, Fault: &fault}

	// A read overlapping the hole yields zeroes for the invalid part and
	// marks the fault.
	copy(as.Bytes(hostarch.AddrRange{Start: 0x2f00, End: 0x3000}), bytes.Repeat([]byte{0x11}, 0x100))
	dst := bytes.Repeat([]byte{0xee}, 0x200)
	n, err := bio.CopyIn(0x2f00, dst)
	if wantN := 0x200; n != wantN || err != nil {
		t.Fatalf("CopyIn: got (%#x, %v), want (%#x, nil)", n, err, wantN)
	}
	if !bytes.Equal(dst[:0x100], bytes.Repeat([]byte{0x11}, 0x100)) {
		t.Errorf("valid prefix not copied")
	}
	if !bytes.Equal(dst[0x100:], make([]byte, 0x100)) {
		t.Errorf("invalid suffix not zero-filled")
	}
	if !fault.Take() {
		t.Errorf("fault not recorded")
	}
	if fault.Take() {
		t.Errorf("fault record not reset by Take")
	}

	// A write overlapping the hole is discarded for the invalid part only.
	src := bytes.Repeat([]byte{0x22}, 0x200)
	n2, err := bio.CopyOut(0x2f00, src)
	if wantN := 0x200; n2 != wantN || err != nil {
		t.Fatalf("CopyOut: got (%#x, %v), want (%#x, nil)", n2, err, wantN)
	}
	if !bytes.Equal(as.Bytes(hostarch.AddrRange{Start: 0x2f00, End: 0x3000}), src[:0x100]) {
		t.Errorf("valid prefix not written")
	}
	if !fault.Take() {
		t.Errorf("fault not recorded for write")
	}

	// Fully valid accesses leave the record clear.
	if _, err := bio.CopyOut(0x1000, []byte("ok")); err != nil {
		t.Fatalf("CopyOut: %v", err)
	}
	if fault.Take() {
		t.Errorf("fault recorded for a valid access")
	}
}

type testSleeper struct {
	ch chan struct{}
}

func (s *testSleeper) SleepStart() <-chan struct{} { return s.ch }
func (*testSleeper) SleepFinish(bool)              {}
func (s *testSleeper) Interrupted() bool           { return len(s.ch) != 0 }

func TestAccessLockInterrupted(t *testing.T) {
	as := NewAddressSpace(0x1000)
	if err := as.Access.Lock(nil); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	s := &testSleeper{ch: make(chan struct{}, 1)}
	s.ch <- struct{}{}
	if err := as.Access.Lock(s); err != linuxerr.ErrInterrupted {
		t.Fatalf("Lock with pending interrupt: got %v, want %v", err, linuxerr.ErrInterrupted)
	}

	as.Access.Unlock()
	if err := as.Access.Lock(s); err != linuxerr.ErrInterrupted {
		t.Fatalf("Lock with sticky interrupt: got %v, want %v", err, linuxerr.ErrInterrupted)
	}
}
