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

// Getdents implements getdents64(2).
func Getdents(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()

	unlock, err := t.UserAccess()
	if err != nil {
		return 0, err
	}
	defer unlock()

	iovs, err := t.SingleIOVec(addr, uint64(size), hostarch.Write)
	if err != nil {
		return 0, err
	}
	n, err := t.FS().Getdents(fd, iovs[0], t.AddressSpace())
	if err != nil {
		return 0, err
	}
	return uintptr(n), nil
}
