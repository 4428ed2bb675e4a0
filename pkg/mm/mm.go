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

// Package mm provides application address space management. An AddressSpace
// tracks which regions of application memory are mapped and with what
// permissions, and mediates all data movement between the kernel and
// application memory. On a machine without memory protection hardware the
// mapping table is the only thing standing between a stray application
// pointer and kernel state, so every user-supplied address is checked
// against it before any copy takes place.
package mm

import (
	"sort"

	"github.com/bddrey/apex/pkg/amutex"
	"github.com/bddrey/apex/pkg/errors/linuxerr"
	"github.com/bddrey/apex/pkg/hostarch"
	"github.com/bddrey/apex/pkg/log"
)

// A vma is a contiguous mapped region of application memory.
type vma struct {
	ar    hostarch.AddrRange
	perms hostarch.AccessType
}

// canAccess returns true if the vma permits the given access.
func (v *vma) canAccess(at hostarch.AccessType) bool {
	return v.perms.SupersetOf(at)
}

// AccessLock serializes access to an address space against concurrent
// modification. Waiters may be interrupted, in which case Lock returns
// linuxerr.ErrInterrupted without acquiring the lock.
type AccessLock struct {
	mu amutex.AbortableMutex
}

// Lock acquires the lock, blocking until it is available or s is
// interrupted. A nil Sleeper makes the wait uninterruptible.
func (l *AccessLock) Lock(s amutex.Sleeper) error {
	if s != nil && s.Interrupted() {
		return linuxerr.ErrInterrupted
	}
	if !l.mu.Lock(s) {
		return linuxerr.ErrInterrupted
	}
	return nil
}

// Unlock releases the lock.
func (l *AccessLock) Unlock() {
	l.mu.Unlock()
}

// AddressSpace models the memory of a single application. Application
// addresses are offsets into a flat window of at most Size() bytes; only
// regions registered through MapRegion may be read or written.
//
// Mutators take the access lock themselves. Validators and the usermem.IO
// methods require that the caller already holds it, so that a sequence of
// checks and copies observes a stable mapping table.
type AddressSpace struct {
	// Access is the address space guard. Taken (interruptibly) around any
	// sequence of validations and copies that must observe a stable
	// mapping table.
	Access AccessLock

	// mem is the backing for the entire application window.
	mem []byte

	// vmas is the set of mapped regions, sorted by start address and
	// non-overlapping.
	vmas []vma
}

// NewAddressSpace returns an AddressSpace with a window of the given size
// and no mapped regions.
func NewAddressSpace(size uint64) *AddressSpace {
	as := &AddressSpace{
		mem: make([]byte, size),
	}
	as.Access.mu.Init()
	return as
}

// Size returns the size of the application window in bytes.
func (as *AddressSpace) Size() uint64 {
	return uint64(len(as.mem))
}

// Bytes returns the backing for the given mapped range. It is only valid
// until the mapping table changes.
//
// Preconditions: ar must be entirely mapped.
func (as *AddressSpace) Bytes(ar hostarch.AddrRange) []byte {
	return as.mem[ar.Start:ar.End]
}

// MapRegion maps ar with the given permissions, replacing any existing
// mappings in the range. The access lock is taken uninterruptibly: mapping
// changes happen on behalf of the application and cannot be abandoned
// halfway.
func (as *AddressSpace) MapRegion(ar hostarch.AddrRange, perms hostarch.AccessType) error {
	if !ar.WellFormed() || ar.Length() == 0 || uint64(ar.End) > as.Size() {
		return linuxerr.EINVAL
	}
	if err := as.Access.Lock(nil); err != nil {
		return err
	}
	defer as.Access.Unlock()
	log.Debugf("mm: map %v %v", ar, perms)
	as.unmapLocked(ar)
	i := sort.Search(len(as.vmas), func(i int) bool {
		return as.vmas[i].ar.Start >= ar.Start
	})
	as.vmas = append(as.vmas, vma{})
	copy(as.vmas[i+1:], as.vmas[i:])
	as.vmas[i] = vma{ar: ar, perms: perms}
	return nil
}

// UnmapRegion removes all mappings in ar, splitting any vma that straddles
// a boundary.
func (as *AddressSpace) UnmapRegion(ar hostarch.AddrRange) {
	if err := as.Access.Lock(nil); err != nil {
		return
	}
	defer as.Access.Unlock()
	log.Debugf("mm: unmap %v", ar)
	as.unmapLocked(ar)
}

func (as *AddressSpace) unmapLocked(ar hostarch.AddrRange) {
	if !ar.WellFormed() || ar.Length() == 0 {
		return
	}
	var out []vma
	for _, v := range as.vmas {
		if !v.ar.Overlaps(ar) {
			out = append(out, v)
			continue
		}
		if v.ar.Start < ar.Start {
			out = append(out, vma{ar: hostarch.AddrRange{Start: v.ar.Start, End: ar.Start}, perms: v.perms})
		}
		if v.ar.End > ar.End {
			out = append(out, vma{ar: hostarch.AddrRange{Start: ar.End, End: v.ar.End}, perms: v.perms})
		}
	}
	as.vmas = out
}

// ProtectRegion changes the permissions of all mappings in ar. If any part
// of ar is unmapped, ProtectRegion returns ENOMEM without changing
// anything.
func (as *AddressSpace) ProtectRegion(ar hostarch.AddrRange, perms hostarch.AccessType) error {
	if !ar.WellFormed() || ar.Length() == 0 || uint64(ar.End) > as.Size() {
		return linuxerr.EINVAL
	}
	if err := as.Access.Lock(nil); err != nil {
		return err
	}
	defer as.Access.Unlock()
	log.Debugf("mm: protect %v %v", ar, perms)
	if !as.checkRegion(ar, hostarch.NoAccess) {
		return linuxerr.ENOMEM
	}
	var out []vma
	for _, v := range as.vmas {
		if !v.ar.Overlaps(ar) {
			out = append(out, v)
			continue
		}
		if v.ar.Start < ar.Start {
			out = append(out, vma{ar: hostarch.AddrRange{Start: v.ar.Start, End: ar.Start}, perms: v.perms})
		}
		mid := v.ar.Intersect(ar)
		out = append(out, vma{ar: mid, perms: perms})
		if v.ar.End > ar.End {
			out = append(out, vma{ar: hostarch.AddrRange{Start: ar.End, End: v.ar.End}, perms: v.perms})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ar.Start < out[j].ar.Start })
	as.vmas = out
	return nil
}

// checkRegion returns true if [ar.Start, ar.End) is contiguously mapped
// with permissions that are a superset of at.
func (as *AddressSpace) checkRegion(ar hostarch.AddrRange, at hostarch.AccessType) bool {
	addr := ar.Start
	for _, v := range as.vmas {
		if v.ar.End <= addr {
			continue
		}
		if v.ar.Start > addr {
			return false
		}
		if !v.canAccess(at) {
			return false
		}
		if v.ar.End >= ar.End {
			return true
		}
		addr = v.ar.End
	}
	return false
}

// CheckRegion returns true if every byte of the length-byte region at addr
// is mapped with the given access. A zero-length region is always ok.
//
// Preconditions: The access lock is held.
func (as *AddressSpace) CheckRegion(addr hostarch.Addr, length uint64, at hostarch.AccessType) bool {
	if length == 0 {
		return true
	}
	ar, ok := addr.ToRange(length)
	if !ok || uint64(ar.End) > as.Size() {
		return false
	}
	return as.checkRegion(ar, at)
}

// CheckAddr returns true if addr itself lies within a mapped region
// permitting the given access.
//
// Preconditions: The access lock is held.
func (as *AddressSpace) CheckAddr(addr hostarch.Addr, at hostarch.AccessType) bool {
	return as.CheckRegion(addr, 1, at)
}

// CheckString returns true if the NUL-terminated string at addr, including
// its terminator, lies entirely within readable mapped memory and is no
// longer than maxLen bytes.
//
// Preconditions: The access lock is held.
func (as *AddressSpace) CheckString(addr hostarch.Addr, maxLen uint64) bool {
	_, err := as.scanString(addr, maxLen)
	return err == nil
}

// CopyInString copies in the NUL-terminated string at addr. It returns
// EFAULT if any byte of the string, including the terminator, is not
// readable, and ENAMETOOLONG if no terminator is found within maxLen bytes.
//
// Preconditions: The access lock is held.
func (as *AddressSpace) CopyInString(addr hostarch.Addr, maxLen uint64) (string, error) {
	n, err := as.scanString(addr, maxLen)
	if err != nil {
		return "", err
	}
	return string(as.mem[addr : uint64(addr)+n]), nil
}

// scanString returns the length of the NUL-terminated string at addr, not
// including the terminator. Every byte examined must be readable.
func (as *AddressSpace) scanString(addr hostarch.Addr, maxLen uint64) (uint64, error) {
	for n := uint64(0); n < maxLen; {
		v := as.findVMA(addr + hostarch.Addr(n))
		if v == nil || !v.canAccess(hostarch.Read) {
			return 0, linuxerr.EFAULT
		}
		end := uint64(v.ar.End) - uint64(addr)
		if end > maxLen {
			end = maxLen
		}
		for ; n < end; n++ {
			if as.mem[uint64(addr)+n] == 0 {
				return n, nil
			}
		}
	}
	return 0, linuxerr.ENAMETOOLONG
}

// findVMA returns the vma containing addr, or nil.
func (as *AddressSpace) findVMA(addr hostarch.Addr) *vma {
	i := sort.Search(len(as.vmas), func(i int) bool {
		return as.vmas[i].ar.End > addr
	})
	if i < len(as.vmas) && as.vmas[i].ar.Contains(addr) {
		return &as.vmas[i]
	}
	return nil
}
