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

// Package amutex provides the implementation of an abortable mutex. It
// allows the Lock() function to be canceled while it waits to acquire the
// mutex.
package amutex

import (
	"sync/atomic"

	"github.com/bddrey/apex/pkg/errors/linuxerr"
)

// Sleeper must be implemented by users of the abortable mutex to allow for
// cancellation of waits. A typical implementation is backed by the thread's
// pending-interrupt channel: SleepStart returns a channel that becomes
// readable when an interrupt is pending, and SleepFinish(false) re-asserts a
// consumed interrupt so that it remains visible to subsequent waits.
type Sleeper interface {
	// SleepStart is called before going to sleep and returns the channel
	// that aborts the sleep when readable.
	SleepStart() <-chan struct{}

	// SleepFinish is called after the sleep ends. success indicates
	// whether the wait completed normally (as opposed to being aborted).
	SleepFinish(success bool)

	// Interrupted reports whether the wait would be aborted immediately.
	Interrupted() bool
}

// Block blocks until either receiving from ch succeeds (in which case it
// returns nil) or sleeper is interrupted (in which case it returns
// linuxerr.ErrInterrupted).
func Block(sleeper Sleeper, ch <-chan struct{}) error {
	cancel := sleeper.SleepStart()
	select {
	case <-ch:
		sleeper.SleepFinish(true)
		return nil
	case <-cancel:
		sleeper.SleepFinish(false)
		return linuxerr.ErrInterrupted
	}
}

// AbortableMutex is an abortable mutex. It allows Lock() to be aborted while
// it waits to acquire the mutex. It is not reentrant.
type AbortableMutex struct {
	v  int32
	ch chan struct{}
}

// Init initializes the abortable mutex.
func (m *AbortableMutex) Init() {
	atomic.StoreInt32(&m.v, 1)
	m.ch = make(chan struct{}, 1)
}

// Lock attempts to acquire the mutex, returning true on success. If s is
// interrupted while Lock waits, the wait is aborted and false is returned
// instead. A nil Sleeper makes the wait uninterruptible.
func (m *AbortableMutex) Lock(s Sleeper) bool {
	// Uncontended case.
	if atomic.AddInt32(&m.v, -1) == 0 {
		return true
	}

	var c <-chan struct{}
	if s != nil {
		c = s.SleepStart()
	}

	for {
		// Try to acquire the mutex again, at the same time making sure
		// that m.v stays negative, which tells the owner that the lock
		// is contended and a waiter must be woken on Unlock.
		if v := atomic.LoadInt32(&m.v); v >= 0 && atomic.SwapInt32(&m.v, -1) == 1 {
			if s != nil {
				s.SleepFinish(true)
			}
			return true
		}

		// Wait for the owner to wake us up before trying again, or for
		// the wait to be aborted.
		select {
		case <-m.ch:
		case <-c:
			// s must be non-nil, otherwise c would be nil and we'd
			// never reach this path.
			s.SleepFinish(false)
			return false
		}
	}
}

// Unlock releases the mutex.
func (m *AbortableMutex) Unlock() {
	if atomic.SwapInt32(&m.v, 1) == 0 {
		// There were no pending waiters.
		return
	}

	// Wake some waiter up.
	select {
	case m.ch <- struct{}{}:
	default:
	}
}
