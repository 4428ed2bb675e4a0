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
	"github.com/bddrey/apex/pkg/errors/linuxerr"
	"github.com/bddrey/apex/pkg/hostarch"
	"github.com/bddrey/apex/pkg/kernel"
	"github.com/bddrey/apex/pkg/usermem"
)

// Read implements read(2).
func Read(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	iovs, err := t.SingleIOVec(addr, uint64(size), hostarch.Write)
	if err != nil {
		return 0, err
	}
	n, err := t.FS().Read(fd, iovs, t.AddressSpace())
	return handleIOResult("read", n, err)
}

// Pread64 implements pread64(2).
func Pread64(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()
	offset := args[3].Int64()

	if offset < 0 {
		return 0, linuxerr.EINVAL
	}

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	iovs, err := t.SingleIOVec(addr, uint64(size), hostarch.Write)
	if err != nil {
		return 0, err
	}
	n, err := t.FS().Pread(fd, iovs, offset, t.AddressSpace())
	return handleIOResult("pread64", n, err)
}

// Readv implements readv(2).
func Readv(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	count := int(args[2].Int())

	n, err := t.TransferIovecs(addr, count, -1, hostarch.Write, func(iovs []usermem.IOVec, _ int64) (int64, error) {
		return t.FS().Read(fd, iovs, t.AddressSpace())
	})
	return uintptr(n), err
}

// Preadv implements preadv(2). The file offset arrives split across two
// argument registers.
func Preadv(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	count := int(args[2].Int())
	offset := int64(args[4].Uint())<<32 | int64(args[3].Uint())

	if offset < 0 {
		return 0, linuxerr.EINVAL
	}

	n, err := t.TransferIovecs(addr, count, offset, hostarch.Write, func(iovs []usermem.IOVec, off int64) (int64, error) {
		return t.FS().Pread(fd, iovs, off, t.AddressSpace())
	})
	return uintptr(n), err
}
