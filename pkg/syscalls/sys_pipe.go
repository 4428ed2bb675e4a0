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

package syscalls

import (
	"github.com/bddrey/apex/pkg/arch"
	"github.com/bddrey/apex/pkg/hostarch"
	"github.com/bddrey/apex/pkg/kernel"
)

func pipe2(t *kernel.Task, addr hostarch.Addr, flags uint32) (uintptr, error) {
	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	if err := t.CheckRegion(addr, 8, hostarch.Write); err != nil {
		return 0, err
	}
	fds, err := t.FS().Pipe2(flags)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	hostarch.ByteOrder.PutUint32(buf[0:4], uint32(fds[0]))
	hostarch.ByteOrder.PutUint32(buf[4:8], uint32(fds[1]))
	if _, err := t.AddressSpace().CopyOut(addr, buf[:]); err != nil {
		return 0, err
	}
	return 0, nil
}

// Pipe implements pipe(2).
func Pipe(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return pipe2(t, args[0].Pointer(), 0)
}

// Pipe2 implements pipe2(2).
func Pipe2(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	return pipe2(t, args[0].Pointer(), args[1].Uint())
}
