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

// Special values for Timespec.Nsec in utimensat(2) calls, from Linux's
// include/uapi/linux/stat.h.
const (
	UTIME_NOW  = (1 << 30) - 1
	UTIME_OMIT = (1 << 30) - 2
)

// SizeOfTimespec is the size of a Timespec struct.
const SizeOfTimespec = 16

// Timespec represents struct timespec in <time.h>.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// SizeBytes returns the serialized size of t.
func (t *Timespec) SizeBytes() int {
	return SizeOfTimespec
}

// MarshalBytes serializes t into the first SizeBytes() bytes of dst.
func (t *Timespec) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[0:8], uint64(t.Sec))
	hostarch.ByteOrder.PutUint64(dst[8:16], uint64(t.Nsec))
}

// UnmarshalBytes deserializes t from the first SizeBytes() bytes of src.
func (t *Timespec) UnmarshalBytes(src []byte) {
	t.Sec = int64(hostarch.ByteOrder.Uint64(src[0:8]))
	t.Nsec = int64(hostarch.ByteOrder.Uint64(src[8:16]))
}
