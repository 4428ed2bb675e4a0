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

// Package vfs defines the interface between the syscall layer and the
// filesystem proper. The syscall layer owns everything that touches
// application memory: by the time a FileSystem method runs, paths have been
// copied in, fixed-size arguments have been decoded and I/O regions have
// been validated. FileSystem implementations see only kernel memory, plus
// a usermem.IO for bulk data that cannot reasonably be staged.
package vfs

import (
	"github.com/bddrey/apex/pkg/abi/linux"
	"github.com/bddrey/apex/pkg/hostarch"
	"github.com/bddrey/apex/pkg/usermem"
)

// FileSystem is the set of filesystem operations reachable from the system
// call boundary.
//
// Methods that transfer bulk data take pre-validated []usermem.IOVec
// regions and a usermem.IO to move data through; they return the number of
// bytes transferred, which may be less than the total described by the
// vector. Methods whose argument layout is only known to the device
// (Ioctl) or that fill caller-supplied structures do their user memory
// access exclusively through the supplied usermem.IO.
type FileSystem interface {
	// Openat opens path relative to dirfd and returns a new file
	// descriptor.
	Openat(dirfd int32, path string, flags uint32, mode uint) (int32, error)

	// Close closes the given file descriptor.
	Close(fd int32) error

	// Read reads from fd's current position into the given regions.
	Read(fd int32, iovs []usermem.IOVec, uio usermem.IO) (int64, error)

	// Write writes the given regions at fd's current position.
	Write(fd int32, iovs []usermem.IOVec, uio usermem.IO) (int64, error)

	// Pread reads from fd at the given offset, which does not move fd's
	// position.
	Pread(fd int32, iovs []usermem.IOVec, offset int64, uio usermem.IO) (int64, error)

	// Pwrite writes to fd at the given offset, which does not move fd's
	// position.
	Pwrite(fd int32, iovs []usermem.IOVec, offset int64, uio usermem.IO) (int64, error)

	// Seek repositions fd and returns the new offset.
	Seek(fd int32, offset int64, whence int32) (int64, error)

	// Fstat fills s with the attributes of fd.
	Fstat(fd int32, s *linux.Stat) error

	// Fstatat fills s with the attributes of path relative to dirfd.
	Fstatat(dirfd int32, path string, s *linux.Stat, flags uint32) error

	// Statfs fills s with the attributes of the filesystem containing
	// path.
	Statfs(path string, s *linux.Statfs) error

	// Fstatfs fills s with the attributes of the filesystem containing
	// fd.
	Fstatfs(fd int32, s *linux.Statfs) error

	// Getdents reads directory entries from fd into the given region.
	Getdents(fd int32, iov usermem.IOVec, uio usermem.IO) (int64, error)

	// Getcwd writes the current working directory, including the
	// terminating NUL byte, into the given region and returns the number
	// of bytes written. It returns ERANGE if the region is too small.
	Getcwd(iov usermem.IOVec, uio usermem.IO) (int64, error)

	// Chdir changes the current working directory to path.
	Chdir(path string) error

	// Fchdir changes the current working directory to fd.
	Fchdir(fd int32) error

	// Mkdirat creates a directory at path relative to dirfd.
	Mkdirat(dirfd int32, path string, mode uint) error

	// Mknodat creates a filesystem node at path relative to dirfd.
	Mknodat(dirfd int32, path string, mode uint, dev uint64) error

	// Symlinkat creates a symbolic link at newpath containing target.
	Symlinkat(target string, newdirfd int32, newpath string) error

	// Readlinkat reads the target of the symbolic link at path into the
	// given region and returns the number of bytes written, without a
	// terminating NUL byte.
	Readlinkat(dirfd int32, path string, iov usermem.IOVec, uio usermem.IO) (int64, error)

	// Unlinkat removes the entry at path relative to dirfd. AT_REMOVEDIR
	// in flags selects rmdir semantics.
	Unlinkat(dirfd int32, path string, flags uint32) error

	// Renameat renames oldpath to newpath.
	Renameat(olddirfd int32, oldpath string, newdirfd int32, newpath string) error

	// Faccessat checks whether the caller may access path with the given
	// mode.
	Faccessat(dirfd int32, path string, mode uint32) error

	// Fchmodat changes the mode of path relative to dirfd.
	Fchmodat(dirfd int32, path string, mode uint) error

	// Fchownat changes the owner of path relative to dirfd.
	Fchownat(dirfd int32, path string, uid uint32, gid uint32, flags uint32) error

	// Utimensat updates the timestamps of path relative to dirfd. times
	// is nil when the caller passed a null pointer, meaning "now" for
	// both timestamps.
	Utimensat(dirfd int32, path string, times *[2]linux.Timespec, flags uint32) error

	// Fcntl performs a file control operation. For lock commands the
	// caller has already validated the Flock buffer at arg; Fcntl reads
	// and writes it through uio.
	Fcntl(fd int32, cmd int32, arg hostarch.Addr, uio usermem.IO) (uintptr, error)

	// Ioctl performs a device-specific operation. The argument region
	// described by the request encoding has been validated; any access
	// to it goes through uio.
	Ioctl(fd int32, req uint32, arg hostarch.Addr, uio usermem.IO) (uintptr, error)

	// Pipe2 creates a pipe and returns the read and write descriptors.
	Pipe2(flags uint32) ([2]int32, error)

	// Mount mounts the filesystem fstype at target. data points at an
	// fstype-specific argument block in application memory and may be
	// accessed through uio; it is zero when the caller passed a null
	// pointer.
	Mount(source string, target string, fstype string, flags uint64, data hostarch.Addr, uio usermem.IO) error

	// Umount unmounts the filesystem at target.
	Umount(target string, flags uint32) error

	// Sync flushes dirty state for the whole filesystem.
	Sync() error
}
