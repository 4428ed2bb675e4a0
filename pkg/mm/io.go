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
	"github.com/bddrey/apex/pkg/errors/linuxerr"
	"github.com/bddrey/apex/pkg/hostarch"
)

// CopyOut implements usermem.IO.CopyOut. It copies as many bytes as
// possible and returns EFAULT alongside the partial count if the
// destination is not entirely writable.
//
// Preconditions: The access lock is held.
func (as *AddressSpace) CopyOut(addr hostarch.Addr, src []byte) (int, error) {
	done := 0
	for done < len(src) {
		cur := addr + hostarch.Addr(done)
		v := as.findVMA(cur)
		if v == nil || !v.canAccess(hostarch.Write) {
			return done, linuxerr.EFAULT
		}
		n := len(src) - done
		if avail := int(v.ar.End - cur); n > avail {
			n = avail
		}
		copy(as.mem[cur:int(cur)+n], src[done:done+n])
		done += n
	}
	return done, nil
}

// CopyIn implements usermem.IO.CopyIn. It copies as many bytes as possible
// and returns EFAULT alongside the partial count if the source is not
// entirely readable.
//
// Preconditions: The access lock is held.
func (as *AddressSpace) CopyIn(addr hostarch.Addr, dst []byte) (int, error) {
	done := 0
	for done < len(dst) {
		cur := addr + hostarch.Addr(done)
		v := as.findVMA(cur)
		if v == nil || !v.canAccess(hostarch.Read) {
			return done, linuxerr.EFAULT
		}
		n := len(dst) - done
		if avail := int(v.ar.End - cur); n > avail {
			n = avail
		}
		copy(dst[done:done+n], as.mem[cur:int(cur)+n])
		done += n
	}
	return done, nil
}

// ZeroOut implements usermem.IO.ZeroOut.
//
// Preconditions: The access lock is held. toZero >= 0.
func (as *AddressSpace) ZeroOut(addr hostarch.Addr, toZero int64) (int64, error) {
	var done int64
	for done < toZero {
		cur := addr + hostarch.Addr(done)
		v := as.findVMA(cur)
		if v == nil || !v.canAccess(hostarch.Write) {
			return done, linuxerr.EFAULT
		}
		n := toZero - done
		if avail := int64(v.ar.End - cur); n > avail {
			n = avail
		}
		zero := as.mem[cur : int64(cur)+n]
		for i := range zero {
			zero[i] = 0
		}
		done += n
	}
	return done, nil
}
