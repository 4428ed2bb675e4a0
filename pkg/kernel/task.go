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

// Package kernel provides the thread context that syscall implementations
// run in. A Task ties together the calling thread's address space, its
// filesystem, its capabilities and its interrupt state.
package kernel

import (
	"github.com/bddrey/apex/pkg/abi/linux"
	"github.com/bddrey/apex/pkg/mm"
	"github.com/bddrey/apex/pkg/vfs"
)

// Task represents a thread of execution inside the kernel. It carries the
// state a syscall needs: where the calling application's memory is, what
// filesystem it sees and what it is allowed to do.
//
// A Task is also an amutex.Sleeper, so any abortable wait taken on behalf
// of the task is cancelled when the task is interrupted.
type Task struct {
	as    *mm.AddressSpace
	fs    vfs.FileSystem
	caps  linux.CapabilitySet
	fault mm.FaultRecord

	// interrupt is readable when the task has a pending interrupt.
	interrupt chan struct{}
}

// NewTask returns a Task running in as with access to fs and holding the
// given capabilities.
func NewTask(as *mm.AddressSpace, fs vfs.FileSystem, caps linux.CapabilitySet) *Task {
	return &Task{
		as:        as,
		fs:        fs,
		caps:      caps,
		interrupt: make(chan struct{}, 1),
	}
}

// AddressSpace returns the task's address space.
func (t *Task) AddressSpace() *mm.AddressSpace {
	return t.as
}

// FS returns the task's filesystem.
func (t *Task) FS() vfs.FileSystem {
	return t.fs
}

// HasCapability returns true if the task holds cp.
func (t *Task) HasCapability(cp linux.Capability) bool {
	return t.caps&cp.Mask() != 0
}

// Interrupt marks the task as having a pending interrupt, waking any
// abortable wait it is blocked in.
func (t *Task) Interrupt() {
	select {
	case t.interrupt <- struct{}{}:
	default:
	}
}

// Interrupted implements amutex.Sleeper.Interrupted.
func (t *Task) Interrupted() bool {
	return len(t.interrupt) != 0
}

// SleepStart implements amutex.Sleeper.SleepStart.
func (t *Task) SleepStart() <-chan struct{} {
	return t.interrupt
}

// SleepFinish implements amutex.Sleeper.SleepFinish. An aborted sleep
// consumed the pending interrupt from the channel; put it back so that it
// stays visible until the syscall returns to userspace.
func (t *Task) SleepFinish(success bool) {
	if !success {
		t.Interrupt()
	}
}

// AckInterrupt consumes a pending interrupt, if any. It is called on the
// way back to userspace once the interruption has been delivered.
func (t *Task) AckInterrupt() {
	select {
	case <-t.interrupt:
	default:
	}
}
