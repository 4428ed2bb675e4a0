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
	"github.com/bddrey/apex/pkg/abi/linux"
	"github.com/bddrey/apex/pkg/arch"
	"github.com/bddrey/apex/pkg/errors/linuxerr"
	"github.com/bddrey/apex/pkg/hostarch"
	"github.com/bddrey/apex/pkg/kernel"
)

// copyOutStat writes s to the validated buffer at addr.
func copyOutStat(t *kernel.Task, addr hostarch.Addr, s *linux.Stat) error {
	var buf [linux.SizeOfStat]byte
	s.MarshalBytes(buf[:])
	_, err := t.AddressSpace().CopyOut(addr, buf[:])
	return err
}

func statAt(t *kernel.Task, dirfd int32, pathAddr, bufAddr hostarch.Addr, flags uint32) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(pathAddr)
	if err != nil {
		return 0, err
	}
	if err := t.CheckRegion(bufAddr, linux.SizeOfStat, hostarch.Write); err != nil {
		return 0, err
	}
	var s linux.Stat
	if err := t.FS().Fstatat(dirfd, path, &s, flags); err != nil {
		return 0, err
	}
	return 0, copyOutStat(t, bufAddr, &s)
}

// Stat implements stat(2).
func Stat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return statAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].Pointer(), 0)
}

// Lstat implements lstat(2).
func Lstat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return statAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].Pointer(), linux.AT_SYMLINK_NOFOLLOW)
}

// Fstatat implements fstatat(2).
func Fstatat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return statAt(t, args[0].Int(), args[1].Pointer(), args[2].Pointer(), args[3].Uint())
}

// Fstat implements fstat(2).
func Fstat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	bufAddr := args[1].Pointer()

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	if err := t.CheckRegion(bufAddr, linux.SizeOfStat, hostarch.Write); err != nil {
		return 0, err
	}
	var s linux.Stat
	if err := t.FS().Fstat(fd, &s); err != nil {
		return 0, err
	}
	return 0, copyOutStat(t, bufAddr, &s)
}

// copyOutStatfs writes s to the validated buffer at addr.
func copyOutStatfs(t *kernel.Task, addr hostarch.Addr, s *linux.Statfs) error {
	var buf [linux.SizeOfStatfs]byte
	s.MarshalBytes(buf[:])
	_, err := t.AddressSpace().CopyOut(addr, buf[:])
	return err
}

// Statfs implements statfs(2). The caller passes the size of its statfs
// buffer; a mismatch with the kernel's layout is rejected before any user
// memory is touched.
func Statfs(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	pathAddr := args[0].Pointer()
	bufsiz := args[1].SizeT()
	bufAddr := args[2].Pointer()

	if bufsiz != linux.SizeOfStatfs {
		return 0, linuxerr.EINVAL
	}

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(pathAddr)
	if err != nil {
		return 0, err
	}
	if err := t.CheckRegion(bufAddr, linux.SizeOfStatfs, hostarch.Write); err != nil {
		return 0, err
	}
	var s linux.Statfs
	if err := t.FS().Statfs(path, &s); err != nil {
		return 0, err
	}
	return 0, copyOutStatfs(t, bufAddr, &s)
}

// Fstatfs implements fstatfs(2).
func Fstatfs(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	bufsiz := args[1].SizeT()
	bufAddr := args[2].Pointer()

	if bufsiz != linux.SizeOfStatfs {
		return 0, linuxerr.EINVAL
	}

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	if err := t.CheckRegion(bufAddr, linux.SizeOfStatfs, hostarch.Write); err != nil {
		return 0, err
	}
	var s linux.Statfs
	if err := t.FS().Fstatfs(fd, &s); err != nil {
		return 0, err
	}
	return 0, copyOutStatfs(t, bufAddr, &s)
}
