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

func openAt(t *kernel.Task, dirfd int32, addr hostarch.Addr, flags uint32, mode uint) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(addr)
	if err != nil {
		return 0, err
	}
	fd, err := t.FS().Openat(dirfd, path, flags, mode)
	if err != nil {
		return 0, err
	}
	return uintptr(fd), nil
}

// Open implements open(2).
func Open(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return openAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].Uint(), args[2].ModeT())
}

// Openat implements openat(2).
func Openat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return openAt(t, args[0].Int(), args[1].Pointer(), args[2].Uint(), args[3].ModeT())
}

// Close implements close(2).
func Close(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return 0, t.FS().Close(args[0].Int())
}

func accessAt(t *kernel.Task, dirfd int32, addr hostarch.Addr, mode uint32) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(addr)
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Faccessat(dirfd, path, mode)
}

// Access implements access(2).
func Access(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return accessAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].Uint())
}

// Faccessat implements faccessat(2).
func Faccessat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return accessAt(t, args[0].Int(), args[1].Pointer(), args[2].Uint())
}

// Chdir implements chdir(2).
func Chdir(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(args[0].Pointer())
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Chdir(path)
}

// Fchdir implements fchdir(2).
func Fchdir(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return 0, t.FS().Fchdir(args[0].Int())
}

// Getcwd implements getcwd(2).
func Getcwd(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	addr := args[0].Pointer()
	size := args[1].SizeT()

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	iovs, err := t.SingleIOVec(addr, uint64(size), hostarch.Write)
	if err != nil {
		return 0, err
	}
	n, err := t.FS().Getcwd(iovs[0], t.AddressSpace())
	if err != nil {
		return 0, err
	}
	return uintptr(n), nil
}

func chmodAt(t *kernel.Task, dirfd int32, addr hostarch.Addr, mode uint) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(addr)
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Fchmodat(dirfd, path, mode)
}

// Chmod implements chmod(2).
func Chmod(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return chmodAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].ModeT())
}

// Fchmodat implements fchmodat(2).
func Fchmodat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return chmodAt(t, args[0].Int(), args[1].Pointer(), args[2].ModeT())
}

func chownAt(t *kernel.Task, dirfd int32, addr hostarch.Addr, uid, gid, flags uint32) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(addr)
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Fchownat(dirfd, path, uid, gid, flags)
}

// Chown implements chown(2).
func Chown(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return chownAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].Uint(), args[2].Uint(), 0)
}

// Lchown implements lchown(2).
func Lchown(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return chownAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].Uint(), args[2].Uint(), linux.AT_SYMLINK_NOFOLLOW)
}

// Fchownat implements fchownat(2).
func Fchownat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return chownAt(t, args[0].Int(), args[1].Pointer(), args[2].Uint(), args[3].Uint(), args[4].Uint())
}

func mkdirAt(t *kernel.Task, dirfd int32, addr hostarch.Addr, mode uint) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(addr)
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Mkdirat(dirfd, path, mode)
}

// Mkdir implements mkdir(2).
func Mkdir(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return mkdirAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].ModeT())
}

// Mkdirat implements mkdirat(2).
func Mkdirat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return mkdirAt(t, args[0].Int(), args[1].Pointer(), args[2].ModeT())
}

func mknodAt(t *kernel.Task, dirfd int32, addr hostarch.Addr, mode uint, dev uint64) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(addr)
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Mknodat(dirfd, path, mode, dev)
}

// Mknod implements mknod(2).
func Mknod(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return mknodAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].ModeT(), args[2].Uint64())
}

// Mknodat implements mknodat(2).
func Mknodat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return mknodAt(t, args[0].Int(), args[1].Pointer(), args[2].ModeT(), args[3].Uint64())
}

func unlinkAt(t *kernel.Task, dirfd int32, addr hostarch.Addr, flags uint32) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(addr)
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Unlinkat(dirfd, path, flags)
}

// Unlink implements unlink(2).
func Unlink(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return unlinkAt(t, linux.AT_FDCWD, args[0].Pointer(), 0)
}

// Unlinkat implements unlinkat(2).
func Unlinkat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return unlinkAt(t, args[0].Int(), args[1].Pointer(), args[2].Uint())
}

// Rmdir implements rmdir(2).
func Rmdir(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return unlinkAt(t, linux.AT_FDCWD, args[0].Pointer(), linux.AT_REMOVEDIR)
}

func renameAt(t *kernel.Task, olddirfd int32, oldAddr hostarch.Addr, newdirfd int32, newAddr hostarch.Addr) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	oldpath, err := t.CopyInPath(oldAddr)
	if err != nil {
		return 0, err
	}
	newpath, err := t.CopyInPath(newAddr)
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Renameat(olddirfd, oldpath, newdirfd, newpath)
}

// Rename implements rename(2).
func Rename(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return renameAt(t, linux.AT_FDCWD, args[0].Pointer(), linux.AT_FDCWD, args[1].Pointer())
}

// Renameat implements renameat(2).
func Renameat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return renameAt(t, args[0].Int(), args[1].Pointer(), args[2].Int(), args[3].Pointer())
}

func symlinkAt(t *kernel.Task, targetAddr hostarch.Addr, newdirfd int32, newAddr hostarch.Addr) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	target, err := t.CopyInPath(targetAddr)
	if err != nil {
		return 0, err
	}
	newpath, err := t.CopyInPath(newAddr)
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Symlinkat(target, newdirfd, newpath)
}

// Symlink implements symlink(2).
func Symlink(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return symlinkAt(t, args[0].Pointer(), linux.AT_FDCWD, args[1].Pointer())
}

// Symlinkat implements symlinkat(2).
func Symlinkat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return symlinkAt(t, args[0].Pointer(), args[1].Int(), args[2].Pointer())
}

func readlinkAt(t *kernel.Task, dirfd int32, addr, bufAddr hostarch.Addr, size uint) (uintptr, error) {
	if size == 0 {
		return 0, linuxerr.EINVAL
	}

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(addr)
	if err != nil {
		return 0, err
	}
	iovs, err := t.SingleIOVec(bufAddr, uint64(size), hostarch.Write)
	if err != nil {
		return 0, err
	}
	n, err := t.FS().Readlinkat(dirfd, path, iovs[0], t.AddressSpace())
	return handleIOResult("readlinkat", n, err)
}

// Readlink implements readlink(2).
func Readlink(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return readlinkAt(t, linux.AT_FDCWD, args[0].Pointer(), args[1].Pointer(), args[2].SizeT())
}

// Readlinkat implements readlinkat(2).
func Readlinkat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return readlinkAt(t, args[0].Int(), args[1].Pointer(), args[2].Pointer(), args[3].SizeT())
}

// Utimensat implements utimensat(2).
func Utimensat(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	dirfd := args[0].Int()
	pathAddr := args[1].Pointer()
	timesAddr := args[2].Pointer()
	flags := args[3].Uint()

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	path, err := t.CopyInPath(pathAddr)
	if err != nil {
		return 0, err
	}

	// A null times pointer means "set both timestamps to now".
	var times *[2]linux.Timespec
	if timesAddr != 0 {
		if err := t.CheckRegion(timesAddr, 2*linux.SizeOfTimespec, hostarch.Read); err != nil {
			return 0, err
		}
		var buf [2 * linux.SizeOfTimespec]byte
		if _, err := t.AddressSpace().CopyIn(timesAddr, buf[:]); err != nil {
			return 0, err
		}
		times = new([2]linux.Timespec)
		times[0].UnmarshalBytes(buf[:linux.SizeOfTimespec])
		times[1].UnmarshalBytes(buf[linux.SizeOfTimespec:])
	}
	return 0, t.FS().Utimensat(dirfd, path, times, flags)
}

// Fcntl implements fcntl(2).
func Fcntl(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	cmd := args[1].Int()
	arg := args[2].Pointer()

	if err := t.BeginUserAccess(); err != nil {
		return 0, err
	}
	defer t.EndUserAccess()

	// Lock commands carry a struct flock; its layout is the only part of
	// the argument this layer understands, so the region is validated
	// here and the filesystem works through the backstop view.
	switch cmd {
	case linux.F_GETLK:
		if err := t.CheckRegion(arg, linux.SizeOfFlock, hostarch.ReadWrite); err != nil {
			return 0, err
		}
	case linux.F_SETLK, linux.F_SETLKW:
		if err := t.CheckRegion(arg, linux.SizeOfFlock, hostarch.Read); err != nil {
			return 0, err
		}
	}

	rv, err := t.FS().Fcntl(fd, cmd, arg, t.BackstopIO())
	if t.UserFaulted() {
		return 0, linuxerr.EFAULT
	}
	return rv, err
}

// Ioctl implements ioctl(2).
func Ioctl(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	req := args[1].Uint()
	arg := args[2].Pointer()

	if err := t.BeginUserAccess(); err != nil {
		return 0, err
	}
	defer t.EndUserAccess()

	// The request encoding describes the argument buffer. IOC_WRITE means
	// the device reads from userspace, IOC_READ that it writes to it.
	if dir, size := linux.IOCDir(req), linux.IOCSize(req); dir != linux.IOC_NONE && size > 0 {
		at := hostarch.AccessType{
			Read:  dir&linux.IOC_WRITE != 0,
			Write: dir&linux.IOC_READ != 0,
		}
		if err := t.CheckRegion(arg, uint64(size), at); err != nil {
			return 0, err
		}
	}

	rv, err := t.FS().Ioctl(fd, req, arg, t.BackstopIO())
	if t.UserFaulted() {
		return 0, linuxerr.EFAULT
	}
	return rv, err
}

// Sync implements sync(2).
func Sync(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return 0, t.FS().Sync()
}
