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

// Package syscalls implements the system call boundary. Every wrapper in
// this package follows the same contract: user-supplied addresses are
// validated under the address space guard before any data moves, arguments
// that can be rejected without touching user memory are rejected first, and
// the filesystem underneath never sees an unvalidated address.
package syscalls

import (
	"github.com/bddrey/apex/pkg/arch"
	"github.com/bddrey/apex/pkg/kernel"
)

// Syscall is the signature shared by all syscall implementations in this
// package.
type Syscall func(t *kernel.Task, args arch.SyscallArguments) (uintptr, error)
