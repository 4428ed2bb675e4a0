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

package kernel

import (
	"fmt"

	"github.com/bddrey/apex/pkg/abi/linux"
	"github.com/bddrey/apex/pkg/errors/linuxerr"
	"github.com/bddrey/apex/pkg/hostarch"
	"github.com/bddrey/apex/pkg/mm"
	"github.com/bddrey/apex/pkg/usermem"
)

// iovecBatch is the number of struct iovec entries staged into kernel
// memory at a time by TransferIovecs.
const iovecBatch = 16

// UserAccess takes the address space guard on behalf of the task,
// interruptibly. On success it returns the function releasing the guard;
// otherwise it returns the interruption error.
//
// The usual shape of a syscall body is:
//
//	unlock, err := t.UserAccess()
//	if err != nil {
//		return 0, err
//	}
//	defer unlock()
func (t *Task) UserAccess() (func(), error) {
	if err := t.as.Access.Lock(t); err != nil {
		return nil, err
	}
	return t.as.Access.Unlock, nil
}

// BeginUserAccess takes the address space guard and clears the task's
// fault record, for syscall bodies that hand a BackstopIO to code which
// cannot fail mid-operation. It must be paired with EndUserAccess.
func (t *Task) BeginUserAccess() error {
	if err := t.as.Access.Lock(t); err != nil {
		return err
	}
	t.fault.Clear()
	return nil
}

// EndUserAccess releases the guard taken by BeginUserAccess.
func (t *Task) EndUserAccess() {
	t.as.Access.Unlock()
}

// UserFaulted returns whether an invalid application memory access was
// recorded since BeginUserAccess, and resets the record.
func (t *Task) UserFaulted() bool {
	return t.fault.Take()
}

// BackstopIO returns a neutralizing view of the task's memory. Invalid
// reads observe zeroes, invalid writes are discarded, and either sets the
// flag reported by UserFaulted.
func (t *Task) BackstopIO() usermem.IO {
	return mm.BackstopIO{AS: t.as, Fault: &t.fault}
}

// CheckRegion returns EFAULT unless the length-byte region at addr is
// mapped with the given access.
//
// Preconditions: The address space guard is held.
func (t *Task) CheckRegion(addr hostarch.Addr, length uint64, at hostarch.AccessType) error {
	if !t.as.CheckRegion(addr, length, at) {
		return linuxerr.EFAULT
	}
	return nil
}

// CheckAddr returns EFAULT unless addr lies in memory mapped with the
// given access.
//
// Preconditions: The address space guard is held.
func (t *Task) CheckAddr(addr hostarch.Addr, at hostarch.AccessType) error {
	if !t.as.CheckAddr(addr, at) {
		return linuxerr.EFAULT
	}
	return nil
}

// CopyInPath copies in the path string at addr. It returns EFAULT if the
// string is not entirely readable and ENAMETOOLONG if it is longer than
// PATH_MAX.
//
// Preconditions: The address space guard is held.
func (t *Task) CopyInPath(addr hostarch.Addr) (string, error) {
	return t.as.CopyInString(addr, linux.PATH_MAX)
}

// SingleIOVec validates the length-byte region at addr for the given
// access and returns it as a one-entry vector for a transfer.
//
// Preconditions: The address space guard is held.
func (t *Task) SingleIOVec(addr hostarch.Addr, length uint64, at hostarch.AccessType) ([]usermem.IOVec, error) {
	if err := t.CheckRegion(addr, length, at); err != nil {
		return nil, err
	}
	return []usermem.IOVec{{Base: addr, Len: length}}, nil
}

// TransferIovecs is the scatter/gather engine behind readv(2) and
// friends. It stages the struct iovec array at uaddr into kernel memory in
// batches of iovecBatch entries, validates each entry for the given
// access, and feeds the validated regions of each batch to primitive.
//
// Entries with a null base are skipped without being validated. A batch
// left empty by skipping does not invoke primitive at all.
//
// Once any data has been transferred, subsequent failures terminate the
// call successfully with the partial count; errors are only returned when
// nothing has been transferred. A short count from primitive ends the
// transfer.
//
// If offset is negative the transfer runs at the file's current position;
// otherwise each batch runs at offset advanced by the bytes transferred so
// far.
func (t *Task) TransferIovecs(uaddr hostarch.Addr, count int, offset int64, at hostarch.AccessType, primitive usermem.TransferPrimitive) (int64, error) {
	if count < 0 || count > linux.UIO_MAXIOV {
		return 0, linuxerr.EINVAL
	}
	if count == 0 {
		return 0, nil
	}

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	if err := t.CheckRegion(uaddr, uint64(count)*linux.SizeOfIovec, hostarch.Read); err != nil {
		return 0, err
	}

	var (
		buf   [iovecBatch * linux.SizeOfIovec]byte
		iovs  [iovecBatch]usermem.IOVec
		total int64
	)
	for done := 0; done < count; done += iovecBatch {
		n := count - done
		if n > iovecBatch {
			n = iovecBatch
		}
		src := uaddr + hostarch.Addr(done*linux.SizeOfIovec)
		if _, err := t.as.CopyIn(src, buf[:n*linux.SizeOfIovec]); err != nil {
			// The array was validated above, so the mapping must have
			// been yanked out from under us. Treat it like any other
			// mid-transfer fault.
			if total > 0 {
				return total, nil
			}
			return 0, err
		}

		batch := iovs[:0]
		for i := 0; i < n; i++ {
			var iov linux.Iovec
			iov.UnmarshalBytes(buf[i*linux.SizeOfIovec:])
			if iov.Base == 0 {
				continue
			}
			if err := t.CheckRegion(hostarch.Addr(iov.Base), iov.Len, at); err != nil {
				if total > 0 {
					return total, nil
				}
				return 0, err
			}
			batch = append(batch, usermem.IOVec{Base: hostarch.Addr(iov.Base), Len: iov.Len})
		}
		if len(batch) == 0 {
			continue
		}

		want := usermem.NumBytes(batch)
		xferred, err := primitive(batch, offset)
		if xferred > int64(want) {
			panic(fmt.Sprintf("transfer primitive returned %d bytes for a %d byte batch", xferred, want))
		}
		if xferred > 0 {
			total += xferred
			if offset >= 0 {
				offset += xferred
			}
		}
		if err != nil {
			if total > 0 {
				return total, nil
			}
			return 0, err
		}
		if uint64(xferred) < want {
			break
		}
	}
	return total, nil
}
