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

package kernel

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bddrey/apex/pkg/abi/linux"
	"github.com/bddrey/apex/pkg/errors/linuxerr"
	"github.com/bddrey/apex/pkg/hostarch"
	"github.com/bddrey/apex/pkg/mm"
	"github.com/bddrey/apex/pkg/usermem"
)

const (
	// testDataBase is a large mapped region for transfer buffers.
	testDataBase = hostarch.Addr(0x10000)
	testDataSize = 0x10000

	// testArrayBase is where tests place the struct iovec array.
	testArrayBase = hostarch.Addr(0x30000)
	testArraySize = 0x8000
)

func newTestTask(t *testing.T) *Task {
	t.Helper()
	as := mm.NewAddressSpace(0x40000)
	if err := as.MapRegion(hostarch.AddrRange{Start: testDataBase, End: testDataBase + testDataSize}, hostarch.ReadWrite); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}
	if err := as.MapRegion(hostarch.AddrRange{Start: testArrayBase, End: testArrayBase + testArraySize}, hostarch.ReadWrite); err != nil {
		t.Fatalf("MapRegion: %v", err)
	}
	return NewTask(as, nil, 0)
}

// writeIovecArray stores the given entries at testArrayBase in the task's
// address space.
func writeIovecArray(t *testing.T, task *Task, iovs []linux.Iovec) {
	t.Helper()
	buf := make([]byte, len(iovs)*linux.SizeOfIovec)
	for i := range iovs {
		iovs[i].MarshalBytes(buf[i*linux.SizeOfIovec:])
	}
	if _, err := task.AddressSpace().CopyOut(testArrayBase, buf); err != nil {
		t.Fatalf("CopyOut of iovec array: %v", err)
	}
}

// recordingPrimitive records each batch it is handed and the offset it ran
// at, and reports each batch fully transferred unless a hook overrides it.
type recordingPrimitive struct {
	batches [][]usermem.IOVec
	offsets []int64
	hook    func(call int, iovs []usermem.IOVec) (int64, error)
}

func (r *recordingPrimitive) run(iovs []usermem.IOVec, offset int64) (int64, error) {
	cp := make([]usermem.IOVec, len(iovs))
	copy(cp, iovs)
	call := len(r.batches)
	r.batches = append(r.batches, cp)
	r.offsets = append(r.offsets, offset)
	if r.hook != nil {
		return r.hook(call, iovs)
	}
	return int64(usermem.NumBytes(iovs)), nil
}

func TestTransferIovecsBatching(t *testing.T) {
	task := newTestTask(t)

	// 20 entries of 0x10 bytes each: one full batch of 16, then 4.
	var iovs []linux.Iovec
	for i := 0; i < 20; i++ {
		iovs = append(iovs, linux.Iovec{Base: uint64(testDataBase) + uint64(i)*0x10, Len: 0x10})
	}
	writeIovecArray(t, task, iovs)

	var rec recordingPrimitive
	n, err := task.TransferIovecs(testArrayBase, 20, 0, hostarch.Read, rec.run)
	if wantN := int64(20 * 0x10); n != wantN || err != nil {
		t.Fatalf("TransferIovecs: got (%v, %v), want (%v, nil)", n, err, wantN)
	}
	if got, want := len(rec.batches), 2; got != want {
		t.Fatalf("batches: got %v, want %v", got, want)
	}
	if got, want := len(rec.batches[0]), 16; got != want {
		t.Errorf("first batch size: got %v, want %v", got, want)
	}
	if got, want := len(rec.batches[1]), 4; got != want {
		t.Errorf("second batch size: got %v, want %v", got, want)
	}
	if got, want := rec.offsets, []int64{0, 16 * 0x10}; !cmp.Equal(got, want) {
		t.Errorf("offsets: got %v, want %v", got, want)
	}

	want := []usermem.IOVec{
		{Base: testDataBase + 16*0x10, Len: 0x10},
		{Base: testDataBase + 17*0x10, Len: 0x10},
		{Base: testDataBase + 18*0x10, Len: 0x10},
		{Base: testDataBase + 19*0x10, Len: 0x10},
	}
	if diff := cmp.Diff(want, rec.batches[1]); diff != "" {
		t.Errorf("second batch mismatch (-want +got):\n%s", diff)
	}
}

func TestTransferIovecsNullOnly(t *testing.T) {
	task := newTestTask(t)
	writeIovecArray(t, task, []linux.Iovec{{Base: 0, Len: 0x10}})

	var rec recordingPrimitive
	n, err := task.TransferIovecs(testArrayBase, 1, -1, hostarch.Read, rec.run)
	if n != 0 || err != nil {
		t.Fatalf("TransferIovecs: got (%v, %v), want (0, nil)", n, err)
	}
	if len(rec.batches) != 0 {
		t.Errorf("primitive invoked %d times for a null-only vector, want 0", len(rec.batches))
	}
}

func TestTransferIovecsNullMixed(t *testing.T) {
	task := newTestTask(t)
	writeIovecArray(t, task, []linux.Iovec{
		{Base: uint64(testDataBase), Len: 0x10},
		{Base: 0, Len: 0x1000},
		{Base: uint64(testDataBase) + 0x100, Len: 0x20},
	})

	var rec recordingPrimitive
	n, err := task.TransferIovecs(testArrayBase, 3, -1, hostarch.Read, rec.run)
	if wantN := int64(0x30); n != wantN || err != nil {
		t.Fatalf("TransferIovecs: got (%v, %v), want (%v, nil)", n, err, wantN)
	}
	want := [][]usermem.IOVec{{
		{Base: testDataBase, Len: 0x10},
		{Base: testDataBase + 0x100, Len: 0x20},
	}}
	if diff := cmp.Diff(want, rec.batches); diff != "" {
		t.Errorf("batches mismatch (-want +got):\n%s", diff)
	}
}

func TestTransferIovecsBadCount(t *testing.T) {
	task := newTestTask(t)
	var rec recordingPrimitive
	for _, count := range []int{-1, linux.UIO_MAXIOV + 1} {
		// The guard is held across the call: count validation must
		// happen before the engine tries to take it.
		if err := task.AddressSpace().Access.Lock(nil); err != nil {
			t.Fatalf("Lock: %v", err)
		}
		n, err := task.TransferIovecs(testArrayBase, count, -1, hostarch.Read, rec.run)
		task.AddressSpace().Access.Unlock()
		if n != 0 || err != linuxerr.EINVAL {
			t.Errorf("TransferIovecs(count=%d): got (%v, %v), want (0, %v)", count, n, err, linuxerr.EINVAL)
		}
	}
	if len(rec.batches) != 0 {
		t.Errorf("primitive invoked for invalid counts")
	}
}

func TestTransferIovecsZeroCount(t *testing.T) {
	task := newTestTask(t)
	var rec recordingPrimitive
	n, err := task.TransferIovecs(testArrayBase, 0, -1, hostarch.Read, rec.run)
	if n != 0 || err != nil {
		t.Fatalf("TransferIovecs: got (%v, %v), want (0, nil)", n, err)
	}
	if len(rec.batches) != 0 {
		t.Errorf("primitive invoked for a zero-length vector")
	}
}

func TestTransferIovecsUnreadableArray(t *testing.T) {
	task := newTestTask(t)
	var rec recordingPrimitive
	n, err := task.TransferIovecs(0x1000, 4, -1, hostarch.Read, rec.run)
	if n != 0 || err != linuxerr.EFAULT {
		t.Fatalf("TransferIovecs: got (%v, %v), want (0, %v)", n, err, linuxerr.EFAULT)
	}
	if len(rec.batches) != 0 {
		t.Errorf("primitive invoked despite unreadable descriptor array")
	}
}

func TestTransferIovecsFirstEntryInvalid(t *testing.T) {
	task := newTestTask(t)
	writeIovecArray(t, task, []linux.Iovec{{Base: 0x1000, Len: 0x10}})

	var rec recordingPrimitive
	n, err := task.TransferIovecs(testArrayBase, 1, -1, hostarch.Read, rec.run)
	if n != 0 || err != linuxerr.EFAULT {
		t.Fatalf("TransferIovecs: got (%v, %v), want (0, %v)", n, err, linuxerr.EFAULT)
	}
	if len(rec.batches) != 0 {
		t.Errorf("primitive invoked despite invalid first entry")
	}
}

func TestTransferIovecsLaterFaultIsPartialSuccess(t *testing.T) {
	task := newTestTask(t)

	// A full valid batch, then an entry pointing into unmapped memory.
	var iovs []linux.Iovec
	for i := 0; i < 16; i++ {
		iovs = append(iovs, linux.Iovec{Base: uint64(testDataBase) + uint64(i)*0x10, Len: 0x10})
	}
	iovs = append(iovs, linux.Iovec{Base: 0x1000, Len: 0x10})
	writeIovecArray(t, task, iovs)

	var rec recordingPrimitive
	n, err := task.TransferIovecs(testArrayBase, 17, -1, hostarch.Read, rec.run)
	if wantN := int64(16 * 0x10); n != wantN || err != nil {
		t.Fatalf("TransferIovecs: got (%v, %v), want (%v, nil)", n, err, wantN)
	}
	if got, want := len(rec.batches), 1; got != want {
		t.Errorf("batches: got %v, want %v", got, want)
	}
}

func TestTransferIovecsShortTransferStops(t *testing.T) {
	task := newTestTask(t)
	var iovs []linux.Iovec
	for i := 0; i < 20; i++ {
		iovs = append(iovs, linux.Iovec{Base: uint64(testDataBase) + uint64(i)*0x10, Len: 0x10})
	}
	writeIovecArray(t, task, iovs)

	rec := recordingPrimitive{
		hook: func(call int, iovs []usermem.IOVec) (int64, error) {
			return 0x42, nil
		},
	}
	n, err := task.TransferIovecs(testArrayBase, 20, -1, hostarch.Read, rec.run)
	if wantN := int64(0x42); n != wantN || err != nil {
		t.Fatalf("TransferIovecs: got (%v, %v), want (%v, nil)", n, err, wantN)
	}
	if got, want := len(rec.batches), 1; got != want {
		t.Errorf("batches after short transfer: got %v, want %v", got, want)
	}
}

func TestTransferIovecsErrorAfterDataIsPartialSuccess(t *testing.T) {
	task := newTestTask(t)
	var iovs []linux.Iovec
	for i := 0; i < 20; i++ {
		iovs = append(iovs, linux.Iovec{Base: uint64(testDataBase) + uint64(i)*0x10, Len: 0x10})
	}
	writeIovecArray(t, task, iovs)

	rec := recordingPrimitive{
		hook: func(call int, iovs []usermem.IOVec) (int64, error) {
			if call == 0 {
				return int64(usermem.NumBytes(iovs)), nil
			}
			return 0, linuxerr.EIO
		},
	}
	n, err := task.TransferIovecs(testArrayBase, 20, -1, hostarch.Read, rec.run)
	if wantN := int64(16 * 0x10); n != wantN || err != nil {
		t.Fatalf("TransferIovecs: got (%v, %v), want (%v, nil)", n, err, wantN)
	}
}

func TestTransferIovecsErrorWithNoDataPropagates(t *testing.T) {
	task := newTestTask(t)
	writeIovecArray(t, task, []linux.Iovec{{Base: uint64(testDataBase), Len: 0x10}})

	rec := recordingPrimitive{
		hook: func(call int, iovs []usermem.IOVec) (int64, error) {
			return 0, linuxerr.EIO
		},
	}
	n, err := task.TransferIovecs(testArrayBase, 1, -1, hostarch.Read, rec.run)
	if n != 0 || err != linuxerr.EIO {
		t.Fatalf("TransferIovecs: got (%v, %v), want (0, %v)", n, err, linuxerr.EIO)
	}
}

func TestTransferIovecsUntrackedOffset(t *testing.T) {
	task := newTestTask(t)
	var iovs []linux.Iovec
	for i := 0; i < 20; i++ {
		iovs = append(iovs, linux.Iovec{Base: uint64(testDataBase) + uint64(i)*0x10, Len: 0x10})
	}
	writeIovecArray(t, task, iovs)

	var rec recordingPrimitive
	if _, err := task.TransferIovecs(testArrayBase, 20, -1, hostarch.Read, rec.run); err != nil {
		t.Fatalf("TransferIovecs: %v", err)
	}
	if got, want := rec.offsets, []int64{-1, -1}; !cmp.Equal(got, want) {
		t.Errorf("offsets: got %v, want %v", got, want)
	}
}

func TestUserAccessInterrupted(t *testing.T) {
	task := newTestTask(t)
	task.Interrupt()
	if _, err := task.UserAccess(); err != linuxerr.ErrInterrupted {
		t.Fatalf("UserAccess with pending interrupt: got %v, want %v", err, linuxerr.ErrInterrupted)
	}
	// The interrupt stays pending until acknowledged.
	if !task.Interrupted() {
		t.Errorf("interrupt consumed by failed guard acquisition")
	}
	task.AckInterrupt()
	unlock, err := task.UserAccess()
	if err != nil {
		t.Fatalf("UserAccess after ack: %v", err)
	}
	unlock()
}
