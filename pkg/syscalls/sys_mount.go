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
	"github.com/bddrey/apex/pkg/abi/linux"
	"github.com/bddrey/apex/pkg/arch"
	"github.com/bddrey/apex/pkg/errors/linuxerr"
	"github.com/bddrey/apex/pkg/hostarch"
	"github.com/bddrey/apex/pkg/kernel"
)

// Mount implements mount(2).
func Mount(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	sourceAddr := args[0].Pointer()
	targetAddr := args[1].Pointer()
	fstypeAddr := args[2].Pointer()
	flags := args[3].Uint64()
	dataAddr := args[4].Pointer()

	// The privilege check happens before any user memory is touched, so
	// an unprivileged caller learns nothing about the validity of its
	// pointers.
	if !t.HasCapability(linux.CAP_SYS_ADMIN) {
		return 0, linuxerr.EPERM
	}

	if err := t.BeginUserAccess(); err != nil {
		return 0, err
	}
	defer t.EndUserAccess()

	source, err := t.CopyInPath(sourceAddr)
	if err != nil {
		return 0, err
	}
	target, err := t.CopyInPath(targetAddr)
	if err != nil {
		return 0, err
	}
	fstype, err := t.CopyInPath(fstypeAddr)
	if err != nil {
		return 0, err
	}

	// The data block's layout is only known to the filesystem being
	// mounted. The pointer itself is vetted here; the filesystem reads
	// the block through the backstop view.
	if dataAddr != 0 {
		if err := t.CheckAddr(dataAddr, hostarch.Read); err != nil {
			return 0, err
		}
	}

	if err := t.FS().Mount(source, target, fstype, flags, dataAddr, t.BackstopIO()); err != nil {
		return 0, err
	}
	if t.UserFaulted() {
		return 0, linuxerr.EFAULT
	}
	return 0, nil
}

// Umount2 implements umount2(2).
func Umount2(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	targetAddr := args[0].Pointer()
	flags := args[1].Uint()

	if !t.HasCapability(linux.CAP_SYS_ADMIN) {
		return 0, linuxerr.EPERM
	}

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	target, err := t.CopyInPath(targetAddr)
	if err != nil {
		return 0, err
	}
	return 0, t.FS().Umount(target, flags)
}
