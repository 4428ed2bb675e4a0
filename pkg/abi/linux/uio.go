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

// UIO_MAXIOV is the maximum number of struct iovec entries accepted by a
// single vectored I/O syscall, from Linux's include/uapi/linux/uio.h.
const UIO_MAXIOV = 1024

// SizeOfIovec is the size of an Iovec struct.
const SizeOfIovec = 16

// Iovec represents struct iovec as laid out in userspace memory.
type Iovec struct {
	Base uint64
	Len  uint64
}

// SizeBytes returns the serialized size of i.
func (i *Iovec) SizeBytes() int {
	return SizeOfIovec
}

// MarshalBytes serializes i into the first SizeBytes() bytes of dst.
func (i *Iovec) MarshalBytes(dst []byte) {
	hostarch.ByteOrder.PutUint64(dst[0:8], i.Base)
	hostarch.ByteOrder.PutUint64(dst[8:16], i.Len)
}

// UnmarshalBytes deserializes i from the first SizeBytes() bytes of src.
func (i *Iovec) UnmarshalBytes(src []byte) {
	i.Base = hostarch.ByteOrder.Uint64(src[0:8])
	i.Len = hostarch.ByteOrder.Uint64(src[8:16])
}
