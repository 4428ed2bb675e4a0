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

// Commands from fcntl(2), from Linux's include/uapi/linux/fcntl.h.
const (
	F_DUPFD         = 0
	F_GETFD         = 1
	F_SETFD         = 2
	F_GETFL         = 3
	F_SETFL         = 4
	F_GETLK         = 5
	F_SETLK         = 6
	F_SETLKW        = 7
	F_DUPFD_CLOEXEC = 1030
)

// Lock types for fcntl(2).
const (
	F_RDLCK = 0
	F_WRLCK = 1
	F_UNLCK = 2
)

// SizeOfFlock is the size of a Flock struct.
const SizeOfFlock = 32

// Flock is the lock structure for F_GETLK, F_SETLK and F_SETLKW.
type Flock struct {
	Type   int16
	Whence int16
	_      int32
	Start  int64
	Len    int64
	PID    int32
	_      int32
}

// SizeBytes returns the serialized size of f.
func (f *Flock) SizeBytes() int {
	return SizeOfFlock
}

// MarshalBytes serializes f into the first SizeBytes() bytes of dst.
func (f *Flock) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint16(dst[0:2], uint16(f.Type))
	hostarch.ByteOrder.PutUint16(dst[2:4], uint16(f.Whence))
	hostarch.ByteOrder.PutUint32(dst[4:8], 0)
	hostarch.ByteOrder.PutUint64(dst[8:16], uint64(f.Start))
	hostarch.ByteOrder.PutUint64(dst[16:24], uint64(f.Len))
	hostarch.ByteOrder.PutUint32(dst[24:28], uint32(f.PID))
	hostarch.ByteOrder.PutUint32(dst[28:32], 0)
}

// UnmarshalBytes deserializes f from the first SizeBytes() bytes of src.
func (f *Flock) UnmarshalBytes(src []byte) {
	f.Type = int16(hostarch.ByteOrder.Uint16(src[0:2]))
	f.Whence = int16(hostarch.ByteOrder.Uint16(src[2:4]))
	f.Start = int64(hostarch.ByteOrder.Uint64(src[8:16]))
	f.Len = int64(hostarch.ByteOrder.Uint64(src[16:24]))
	f.PID = int32(hostarch.ByteOrder.Uint32(src[24:28]))
}
