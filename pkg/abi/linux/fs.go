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

// Mount flags, from Linux's include/uapi/linux/mount.h.
const (
	MS_RDONLY      = 0x1
	MS_NOSUID      = 0x2
	MS_NODEV       = 0x4
	MS_NOEXEC      = 0x8
	MS_SYNCHRONOUS = 0x10
	MS_REMOUNT     = 0x20
	MS_NOATIME     = 0x400
	MS_BIND        = 0x1000
)

// Umount2 flags, from Linux's fs/namespace.c.
const (
	MNT_FORCE  = 0x1
	MNT_DETACH = 0x2
	MNT_EXPIRE = 0x4
)

// SizeOfStatfs is the size of a Statfs struct.
const SizeOfStatfs = 88

// Statfs is struct statfs, from statfs(2).
type Statfs struct {
	// Type is one of the filesystem magic values.
	Type uint64

	// BlockSize is the optimal transfer block size in bytes.
	BlockSize int64

	// Blocks is the maximum number of data blocks the filesystem may store, in
	// units of BlockSize.
	Blocks uint64

	// BlocksFree is the number of free data blocks, in units of BlockSize.
	BlocksFree uint64

	// BlocksAvailable is the number of data blocks free for use by
	// unprivileged users, in units of BlockSize.
	BlocksAvailable uint64

	// Files is the number of used file nodes on the filesystem.
	Files uint64

	// FilesFree is the number of free file nodes on the filesystem.
	FilesFree uint64

	// FSID is the filesystem ID.
	FSID [2]int32

	// NameLength is the maximum file name length.
	NameLength uint64

	// FragmentSize is equivalent to BlockSize.
	FragmentSize int64

	// Flags is the set of filesystem mount flags.
	Flags uint64
}

// SizeBytes returns the serialized size of s.
func (s *Statfs) SizeBytes() int {
	return SizeOfStatfs
}

// MarshalBytes serializes s into the first SizeBytes() bytes of dst.
func (s *Statfs) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[0:8], s.Type)
	hostarch.ByteOrder.PutUint64(dst[8:16], uint64(s.BlockSize))
	hostarch.ByteOrder.PutUint64(dst[16:24], s.Blocks)
	hostarch.ByteOrder.PutUint64(dst[24:32], s.BlocksFree)
	hostarch.ByteOrder.PutUint64(dst[32:40], s.BlocksAvailable)
	hostarch.ByteOrder.PutUint64(dst[40:48], s.Files)
	hostarch.ByteOrder.PutUint64(dst[48:56], s.FilesFree)
	hostarch.ByteOrder.PutUint32(dst[56:60], uint32(s.FSID[0]))
	hostarch.ByteOrder.PutUint32(dst[60:64], uint32(s.FSID[1]))
	hostarch.ByteOrder.PutUint64(dst[64:72], s.NameLength)
	hostarch.ByteOrder.PutUint64(dst[72:80], uint64(s.FragmentSize))
	hostarch.ByteOrder.PutUint64(dst[80:88], s.Flags)
}

// UnmarshalBytes deserializes s from the first SizeBytes() bytes of src.
func (s *Statfs) UnmarshalBytes(src []byte) {
	s.Type = hostarch.ByteOrder.Uint64(src[0:8])
	s.BlockSize = int64(hostarch.ByteOrder.Uint64(src[8:16]))
	s.Blocks = hostarch.ByteOrder.Uint64(src[16:24])
	s.BlocksFree = hostarch.ByteOrder.Uint64(src[24:32])
	s.BlocksAvailable = hostarch.ByteOrder.Uint64(src[32:40])
	s.Files = hostarch.ByteOrder.Uint64(src[40:48])
	s.FilesFree = hostarch.ByteOrder.Uint64(src[48:56])
	s.FSID[0] = int32(hostarch.ByteOrder.Uint32(src[56:60]))
	s.FSID[1] = int32(hostarch.ByteOrder.Uint32(src[60:64]))
	s.NameLength = hostarch.ByteOrder.Uint64(src[64:72])
	s.FragmentSize = int64(hostarch.ByteOrder.Uint64(src[72:80]))
	s.Flags = hostarch.ByteOrder.Uint64(src[80:88])
}
