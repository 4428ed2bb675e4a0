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

// Package linuxerr contains syscall error codes exported as error interface
// pointers. This allows for fast comparison and return operations comparable
// to unix.Errno constants.
package linuxerr

import (
	"golang.org/x/sys/unix"

	"github.com/bddrey/apex/pkg/abi/linux/errno"
	"github.com/bddrey/apex/pkg/errors"
)

// The following errors are semantically identical to Errno of type unix.Errno
// or syscall.Errno. However, since the types are distinct (these are
// *errors.Error), they are not directly comparable. The Errno method returns
// a number such that unix.Errno(EPERM.Errno()) == unix.EPERM holds.
var (
	EPERM        = errors.New(errno.EPERM, "operation not permitted")
	ENOENT       = errors.New(errno.ENOENT, "no such file or directory")
	EINTR        = errors.New(errno.EINTR, "interrupted system call")
	EIO          = errors.New(errno.EIO, "I/O error")
	EBADF        = errors.New(errno.EBADF, "bad file number")
	EAGAIN       = errors.New(errno.EAGAIN, "try again")
	ENOMEM       = errors.New(errno.ENOMEM, "out of memory")
	EACCES       = errors.New(errno.EACCES, "permission denied")
	EFAULT       = errors.New(errno.EFAULT, "bad address")
	EBUSY        = errors.New(errno.EBUSY, "device or resource busy")
	EEXIST       = errors.New(errno.EEXIST, "file exists")
	ENODEV       = errors.New(errno.ENODEV, "no such device")
	ENOTDIR      = errors.New(errno.ENOTDIR, "not a directory")
	EISDIR       = errors.New(errno.EISDIR, "is a directory")
	EINVAL       = errors.New(errno.EINVAL, "invalid argument")
	ENOTTY       = errors.New(errno.ENOTTY, "not a typewriter")
	EFBIG        = errors.New(errno.EFBIG, "file too large")
	ENOSPC       = errors.New(errno.ENOSPC, "no space left on device")
	ESPIPE       = errors.New(errno.ESPIPE, "illegal seek")
	EROFS        = errors.New(errno.EROFS, "read-only file system")
	EPIPE        = errors.New(errno.EPIPE, "broken pipe")
	ERANGE       = errors.New(errno.ERANGE, "math result not representable")
	ENAMETOOLONG = errors.New(errno.ENAMETOOLONG, "file name too long")
	ENOSYS       = errors.New(errno.ENOSYS, "invalid system call number")
	ENOTEMPTY    = errors.New(errno.ENOTEMPTY, "directory not empty")
	ELOOP        = errors.New(errno.ELOOP, "too many symbolic links encountered")
	EOVERFLOW    = errors.New(errno.EOVERFLOW, "value too large for defined data type")
	EWOULDBLOCK  = errors.New(errno.EWOULDBLOCK, "operation would block")
)

// Equals compares a linuxerr to a given error.
func Equals(e *errors.Error, err error) bool {
	if err == nil || e == nil {
		return e == nil && err == nil
	}
	if lerr, ok := err.(*errors.Error); ok {
		return lerr.Errno() == e.Errno()
	}
	if uerr, ok := err.(unix.Errno); ok {
		return unix.Errno(e.Errno()) == uerr
	}
	return false
}

// ToUnix translates e to the equivalent unix.Errno, or 0 for nil.
func ToUnix(e *errors.Error) unix.Errno {
	if e == nil {
		return 0
	}
	return unix.Errno(e.Errno())
}

// ToRetval converts a (value, error) pair into the negative-integer return
// code domain of the syscall ABI: errors become -errno, success passes the
// value through. Errors outside the errno domain degrade to EIO rather than
// leaking an unrepresentable value to userspace.
func ToRetval(rv uintptr, err error) uintptr {
	if err == nil {
		return rv
	}
	if uerr, ok := err.(unix.Errno); ok {
		return uintptr(-int(uerr))
	}
	e, ok := TranslateError(err)
	if !ok {
		e = EIO
	}
	return uintptr(-int(e.Errno()))
}
