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
	"sync/atomic"

	"github.com/bddrey/apex/pkg/hostarch"
)

// FaultRecord records that a thread touched invalid application memory
// while inside a neutralized access section. It is sticky until taken.
type FaultRecord struct {
	faulted atomic.Bool
}

// Mark records a fault.
func (f *FaultRecord) Mark() {
	f.faulted.Store(true)
}

// Take returns whether a fault was recorded, and resets the record.
func (f *FaultRecord) Take() bool {
	return f.faulted.Swap(false)
}

// Clear resets the record without reading it.
func (f *FaultRecord) Clear() {
	f.faulted.Store(false)
}

// BackstopIO is a neutralizing view of an address space for use by code
// that cannot fail mid-operation. Reads of invalid memory observe zeroes
// and writes to invalid memory are discarded; either records a fault in
// the associated FaultRecord instead of returning an error. The caller is
// expected to check the record once the operation has finished.
type BackstopIO struct {
	AS    *AddressSpace
	Fault *FaultRecord
}

// CopyOut implements usermem.IO.CopyOut. It never returns an error.
//
// Preconditions: The access lock is held.
func (b BackstopIO) CopyOut(addr hostarch.Addr, src []byte) (int, error) {
	n, err := b.AS.CopyOut(addr, src)
	if err != nil {
		b.Fault.Mark()
		b.discardOut(addr+hostarch.Addr(n), len(src)-n, src[n:])
	}
	return len(src), nil
}

// CopyIn implements usermem.IO.CopyIn. It never returns an error.
//
// Preconditions: The access lock is held.
func (b BackstopIO) CopyIn(addr hostarch.Addr, dst []byte) (int, error) {
	n, err := b.AS.CopyIn(addr, dst)
	if err != nil {
		b.Fault.Mark()
		rest := dst[n:]
		for i := range rest {
			rest[i] = 0
		}
	}
	return len(dst), nil
}

// ZeroOut implements usermem.IO.ZeroOut. It never returns an error.
//
// Preconditions: The access lock is held. toZero >= 0.
func (b BackstopIO) ZeroOut(addr hostarch.Addr, toZero int64) (int64, error) {
	if _, err := b.AS.ZeroOut(addr, toZero); err != nil {
		b.Fault.Mark()
	}
	return toZero, nil
}

// discardOut writes the writable parts of src that lie beyond the first
// invalid byte, so that a fault in the middle of a copy does not also
// corrupt valid regions further along.
func (b BackstopIO) discardOut(addr hostarch.Addr, length int, src []byte) {
	for done := 0; done < length; {
		cur := addr + hostarch.Addr(done)
		v := b.AS.findVMA(cur)
		if v == nil || !v.canAccess(hostarch.Write) {
			done++
			continue
		}
		n := length - done
		if avail := int(v.ar.End - cur); n > avail {
			n = avail
		}
		copy(b.AS.mem[cur:int(cur)+n], src[done:done+n])
		done += n
	}
}
