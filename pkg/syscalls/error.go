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
	"github.com/bddrey/apex/pkg/errors/linuxerr"
	"github.com/bddrey/apex/pkg/log"
)

// handleIOResult resolves the outcome of an I/O operation that may have
// partially completed. Once any bytes have been transferred the syscall
// must report the partial count as success; the accompanying error, if
// any, will resurface on the next call that transfers nothing.
//
// Errors that are dropped this way are expected for faults, interruptions
// and short device reads. Anything else is logged, since it suggests the
// filesystem failed in a way it cannot report.
func handleIOResult(op string, n int64, err error) (uintptr, error) {
	if n == 0 && err != nil {
		return 0, err
	}
	if err != nil && !expectedPartialError(err) {
		log.Warningf("%s: dropping error after %d byte partial result: %v", op, n, err)
		log.Traceback("unexpected error on partial result")
	}
	return uintptr(n), nil
}

func expectedPartialError(err error) bool {
	switch {
	case err == linuxerr.ErrWouldBlock || err == linuxerr.ErrInterrupted:
		return true
	case linuxerr.Equals(linuxerr.EFAULT, err):
		return true
	case linuxerr.Equals(linuxerr.EINTR, err):
		return true
	case linuxerr.Equals(linuxerr.EAGAIN, err):
		return true
	}
	return false
}
