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

package linux

import "github.com/bddrey/apex/pkg/hostarch"

// Constants for open(2).
const (
	O_ACCMODE  = 0o003
	O_RDONLY   = 0o0
	O_WRONLY   = 0o1
	O_RDWR     = 0o2
	O_CREAT    = 0o100
	O_EXCL     = 0o200
	O_TRUNC    = 0o1000
	O_APPEND   = 0o2000
	O_NONBLOCK = 0o4000
	O_CLOEXEC  = 0o2000000
)

// Constants for the *at(2) family of syscalls.
const (
	// AT_FDCWD refers to the current working directory when passed in
	// place of a directory file descriptor.
	AT_FDCWD = -100

	AT_SYMLINK_NOFOLLOW = 0x100
	AT_REMOVEDIR        = 0x200
	AT_SYMLINK_FOLLOW   = 0x400
	AT_EMPTY_PATH       = 0x1000
)

// Values for access(2) and faccessat(2) mode.
const (
	F_OK = 0
	X_OK = 1
	W_OK = 2
	R_OK = 4
)

// Values for lseek(2) whence.
const (
	SEEK_SET = 0
	SEEK_CUR = 1
	SEEK_END = 2
)

// SizeOfStat is the size of a Stat struct.
const SizeOfStat = 112

// Stat represents the attributes of a file, copied out to userspace by
// stat(2) and friends.
type Stat struct {
	Dev     uint64
	Ino     uint64
	Mode    uint32
	Nlink   uint32
	UID     uint32
	GID     uint32
	Rdev    uint64
	Size    int64
	Blksize int32
	_       int32
	Blocks  int64
	ATime   Timespec
	MTime   Timespec
	CTime   Timespec
}

// SizeBytes returns the serialized size of s.
func (s *Stat) SizeBytes() int {
	return SizeOfStat
}

// MarshalBytes serializes s into the first SizeBytes() bytes of dst.
func (s *Stat) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[0:8], s.Dev)
	hostarch.ByteOrder.PutUint64(dst[8:16], s.Ino)
	hostarch.ByteOrder.PutUint32(dst[16:20], s.Mode)
	hostarch.ByteOrder.PutUint32(dst[20:24], s.Nlink)
	hostarch.ByteOrder.PutUint32(dst[24:28], s.UID)
	hostarch.ByteOrder.PutUint32(dst[28:32], s.GID)
	hostarch.ByteOrder.PutUint64(dst[32:40], s.Rdev)
	hostarch.ByteOrder.PutUint64(dst[40:48], uint64(s.Size))
	hostarch.ByteOrder.PutUint32(dst[48:52], uint32(s.Blksize))
	hostarch.ByteOrder.PutUint32(dst[52:56], 0)
	hostarch.ByteOrder.PutUint64(dst[56:64], uint64(s.Blocks))
	s.ATime.MarshalBytes(dst[64:80])
	s.MTime.MarshalBytes(dst[80:96])
	s.CTime.MarshalBytes(dst[96:112])
}

// UnmarshalBytes deserializes s from the first SizeBytes() bytes of src.
func (s *Stat) UnmarshalBytes(src []byte) {
	s.Dev = hostarch.ByteOrder.Uint64(src[0:8])
	s.Ino = hostarch.ByteOrder.Uint64(src[8:16])
	s.Mode = hostarch.ByteOrder.Uint32(src[16:20])
	s.Nlink = hostarch.ByteOrder.Uint32(src[20:24])
	s.UID = hostarch.ByteOrder.Uint32(src[24:28])
	s.GID = hostarch.ByteOrder.Uint32(src[28:32])
	s.Rdev = hostarch.ByteOrder.Uint64(src[32:40])
	s.Size = int64(hostarch.ByteOrder.Uint64(src[40:48]))
	s.Blksize = int32(hostarch.ByteOrder.Uint32(src[48:52]))
	s.Blocks = int64(hostarch.ByteOrder.Uint64(src[56:64]))
	s.ATime.UnmarshalBytes(src[64:80])
	s.MTime.UnmarshalBytes(src[80:96])
	s.CTime.UnmarshalBytes(src[96:112])
}
