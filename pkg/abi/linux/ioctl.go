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

// Encoding of ioctl(2) requests, from Linux's include/uapi/asm-generic/ioctl.h.
// A request packs the argument direction and size alongside the request type
// and number, which lets the syscall layer validate the argument buffer
// without knowing anything about the specific device.
const (
	_IOC_NRBITS   = 8
	_IOC_TYPEBITS = 8
	_IOC_SIZEBITS = 14
	_IOC_DIRBITS  = 2

	_IOC_NRSHIFT   = 0
	_IOC_TYPESHIFT = _IOC_NRSHIFT + _IOC_NRBITS
	_IOC_SIZESHIFT = _IOC_TYPESHIFT + _IOC_TYPEBITS
	_IOC_DIRSHIFT  = _IOC_SIZESHIFT + _IOC_SIZEBITS

	_IOC_NRMASK   = (1 << _IOC_NRBITS) - 1
	_IOC_TYPEMASK = (1 << _IOC_TYPEBITS) - 1
	_IOC_SIZEMASK = (1 << _IOC_SIZEBITS) - 1
	_IOC_DIRMASK  = (1 << _IOC_DIRBITS) - 1
)

// Direction values encoded in an ioctl request.
const (
	IOC_NONE  = 0
	IOC_WRITE = 1
	IOC_READ  = 2
)

// IOC constructs an ioctl request from its components.
func IOC(dir, typ, nr, size uint32) uint32 {
	return dir<<_IOC_DIRSHIFT | typ<<_IOC_TYPESHIFT | nr<<_IOC_NRSHIFT | size<<_IOC_SIZESHIFT
}

// IO constructs an ioctl request with no argument.
func IO(typ, nr uint32) uint32 {
	return IOC(IOC_NONE, typ, nr, 0)
}

// IOR constructs an ioctl request that reads size bytes from the kernel into
// userspace.
func IOR(typ, nr, size uint32) uint32 {
	return IOC(IOC_READ, typ, nr, size)
}

// IOW constructs an ioctl request that writes size bytes from userspace into
// the kernel.
func IOW(typ, nr, size uint32) uint32 {
	return IOC(IOC_WRITE, typ, nr, size)
}

// IOWR constructs an ioctl request whose argument is both read and written.
func IOWR(typ, nr, size uint32) uint32 {
	return IOC(IOC_READ|IOC_WRITE, typ, nr, size)
}

// IOCDir extracts the direction bits from an ioctl request.
func IOCDir(req uint32) uint32 {
	return (req >> _IOC_DIRSHIFT) & _IOC_DIRMASK
}

// IOCType extracts the type bits from an ioctl request.
func IOCType(req uint32) uint32 {
	return (req >> _IOC_TYPESHIFT) & _IOC_TYPEMASK
}

// IOCNr extracts the number bits from an ioctl request.
func IOCNr(req uint32) uint32 {
	return (req >> _IOC_NRSHIFT) & _IOC_NRMASK
}

// IOCSize extracts the argument size bits from an ioctl request.
func IOCSize(req uint32) uint32 {
	return (req >> _IOC_SIZESHIFT) & _IOC_SIZEMASK
}
