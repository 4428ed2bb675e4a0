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

package hostarch

import "testing"

func TestAddLength(t *testing.T) {
	for _, test := range []struct {
		addr    Addr
		length  uint64
		wantEnd Addr
		wantOK  bool
	}{
		{addr: 0x1000, length: 0x1000, wantEnd: 0x2000, wantOK: true},
		{addr: 0x1000, length: 0, wantEnd: 0x1000, wantOK: true},
		{addr: ^Addr(0), length: 0, wantEnd: ^Addr(0), wantOK: true},
		{addr: ^Addr(0), length: 1, wantOK: false},
		{addr: 0x1000, length: ^uint64(0), wantOK: false},
	} {
		end, ok := test.addr.AddLength(test.length)
		if ok != test.wantOK || (ok && end != test.wantEnd) {
			t.Errorf("Addr(%#x).AddLength(%#x): got (%#x, %v), want (%#x, %v)", test.addr, test.length, end, ok, test.wantEnd, test.wantOK)
		}
	}
}

func TestAddrRange(t *testing.T) {
	r := AddrRange{0x1000, 0x3000}
	if !r.WellFormed() {
		t.Fatalf("%v.WellFormed(): got false, want true", r)
	}
	if got, want := r.Length(), uint64(0x2000); got != want {
		t.Errorf("%v.Length(): got %#x, want %#x", r, got, want)
	}
	if !r.Contains(0x1000) || r.Contains(0x3000) {
		t.Errorf("%v.Contains: start should be in, end should be out", r)
	}
	if got, want := r.Intersect(AddrRange{0x2000, 0x4000}), (AddrRange{0x2000, 0x3000}); got != want {
		t.Errorf("Intersect: got %v, want %v", got, want)
	}
	if got := r.Intersect(AddrRange{0x4000, 0x5000}); got.Length() != 0 {
		t.Errorf("Intersect of disjoint ranges: got %v, want empty", got)
	}
	if !r.IsSupersetOf(AddrRange{0x1800, 0x2800}) || r.IsSupersetOf(AddrRange{0x2800, 0x3800}) {
		t.Errorf("%v.IsSupersetOf misbehaved", r)
	}
}

func TestAccessType(t *testing.T) {
	if !ReadWrite.SupersetOf(Read) || Read.SupersetOf(ReadWrite) {
		t.Errorf("SupersetOf: rw/r relation wrong")
	}
	if got, want := ReadWrite.String(), "rw-"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
	if NoAccess.Any() {
		t.Errorf("NoAccess.Any(): got true, want false")
	}
	if got := Write.Effective(); !got.Read {
		t.Errorf("Write.Effective(): got %v, want read implied", got)
	}
}
