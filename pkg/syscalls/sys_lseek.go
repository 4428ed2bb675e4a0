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

package syscalls

import (
	"github.com/bddrey/apex/pkg/arch"
	"github.com/bddrey/apex/pkg/hostarch"
	"github.com/bddrey/apex/pkg/kernel"
)

// Lseek implements lseek(2).
func Lseek(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	offset := args[1].Int64()
	whence := args[2].Int()

	n, err := t.FS().Seek(fd, offset, whence)
	if err != nil {
		return 0, err
	}
	return uintptr(n), nil
}

// Llseek implements _llseek(2). The 64-bit offset arrives split across two
// 32-bit argument registers and the result is written to a caller-supplied
// buffer rather than returned.
func Llseek(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	offsetHigh := args[1].Uint()
	offsetLow := args[2].Uint()
	resultAddr := args[3].Pointer()
	whence := args[4].Int()

	offset := int64(offsetHigh)<<32 | int64(offsetLow)

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	if err := t.CheckRegion(resultAddr, 8, hostarch.Write); err != nil {
		return 0, err
	}
	n, err := t.FS().Seek(fd, offset, whence)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	hostarch.ByteOrder.PutUint64(buf[:], uint64(n))
	if _, err := t.AddressSpace().CopyOut(resultAddr, buf[:]); err != nil {
		return 0, err
	}
	return 0, nil
}
