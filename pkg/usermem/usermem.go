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

// Package usermem governs access to user memory. All reads from and writes
// to user memory pass through an implementation of IO, never through raw
// pointer dereferences.
package usermem

import (
	"github.com/bddrey/apex/pkg/hostarch"
)

// IO provides access to the memory of an application address space.
type IO interface {
	// CopyOut copies len(src) bytes from src to the memory mapped at addr. It
	// returns the number of bytes copied. If the return value is less than
	// len(src), it returns a non-nil error explaining why.
	CopyOut(addr hostarch.Addr, src []byte) (int, error)

	// CopyIn copies len(dst) bytes from the memory mapped at addr to dst. It
	// returns the number of bytes copied. If the return value is less than
	// len(dst), it returns a non-nil error explaining why.
	CopyIn(addr hostarch.Addr, dst []byte) (int, error)

	// ZeroOut sets toZero bytes to 0 starting at addr. It returns the number
	// of bytes zeroed. If the return value is less than toZero, it returns a
	// non-nil error explaining why.
	//
	// Preconditions: toZero >= 0.
	ZeroOut(addr hostarch.Addr, toZero int64) (int64, error)
}

// IOVec describes a validated region of application memory that a transfer
// may read from or write to.
type IOVec struct {
	// Base is the starting address of the region.
	Base hostarch.Addr

	// Len is the length of the region in bytes.
	Len uint64
}

// ToRange returns the address range covered by v.
func (v IOVec) ToRange() hostarch.AddrRange {
	return hostarch.AddrRange{Start: v.Base, End: v.Base + hostarch.Addr(v.Len)}
}

// NumBytes returns the total number of bytes described by the given vector.
func NumBytes(iovs []IOVec) uint64 {
	var n uint64
	for _, iov := range iovs {
		n += iov.Len
	}
	return n
}

// TransferPrimitive moves data between a file and the given pre-validated
// regions of application memory, starting at offset (or at the file's
// current position if offset is negative). It returns the number of bytes
// transferred, which may be less than NumBytes(iovs). A short count with a
// nil error terminates the surrounding transfer without failing it.
type TransferPrimitive func(iovs []IOVec, offset int64) (int64, error)
