// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/clq/internal/metrics"
	"code.hybscloud.com/spin"
)

// RecordList is the ordered list of not-yet-retired records of one queue.
//
// Any number of goroutines may Enqueue. Exactly one executor goroutine may
// call Next; Retire may be called from any goroutine once a record is done.
//
// A record is outstanding from the moment Enqueue accepts it until Retire.
// The list is quiescent when nothing is outstanding: no record is waiting
// and none is in flight.
type RecordList struct {
	ring        recordRing
	outstanding atomix.Int64
	accepted    atomix.Uint64
	retired     atomix.Uint64
	closed      atomix.Bool

	mu   sync.Mutex
	idle *sync.Cond
}

func newRecordList(capacity int, compact bool) *RecordList {
	l := &RecordList{}
	if compact {
		l.ring = newCASRing(capacity)
	} else {
		l.ring = newFAARing(capacity)
	}
	l.idle = sync.NewCond(&l.mu)
	return l
}

// Enqueue appends rec (multiple producers safe).
//
// Returns ErrWouldBlock if the list is full, ErrInvalidValue for a nil
// record, and ErrInvalidCommandQueue once the owning queue started
// destruction. Producers that race on an almost full list may wait for the
// executor to free a slot instead of failing.
func (l *RecordList) Enqueue(rec *Record) error {
	if rec == nil {
		return ErrInvalidValue
	}
	// Count first so a concurrent destroy sees the record before it lands.
	l.outstanding.AddAcqRel(1)
	if l.closed.LoadAcquire() {
		l.settle(l.outstanding.AddAcqRel(-1))
		return ErrInvalidCommandQueue
	}
	if rec.EnqueuedAt.IsZero() {
		rec.EnqueuedAt = time.Now()
	}
	if err := l.ring.push(rec); err != nil {
		l.settle(l.outstanding.AddAcqRel(-1))
		return err
	}
	l.accepted.AddAcqRel(1)
	metrics.AddOutstandingRecords(1)
	return nil
}

// Next hands the oldest waiting record to the executor (single consumer).
// Returns (nil, ErrWouldBlock) if no record is waiting.
func (l *RecordList) Next() (*Record, error) {
	return l.ring.pop()
}

// Retire marks rec as executed.
// Returns ErrInvalidValue for a nil record or when nothing is outstanding.
func (l *RecordList) Retire(rec *Record) error {
	if rec == nil {
		return ErrInvalidValue
	}
	sw := spin.Wait{}
	for {
		n := l.outstanding.Load()
		if n <= 0 {
			return ErrInvalidValue
		}
		if l.outstanding.CompareAndSwapAcqRel(n, n-1) {
			l.retired.AddAcqRel(1)
			metrics.AddOutstandingRecords(-1)
			l.wake()
			return nil
		}
		sw.Once()
	}
}

// Outstanding returns the number of records enqueued and not yet retired.
func (l *RecordList) Outstanding() int {
	return int(l.outstanding.Load())
}

// Accepted returns the number of records Enqueue has accepted so far.
func (l *RecordList) Accepted() uint64 {
	return l.accepted.LoadAcquire()
}

// Retired returns the number of records retired so far.
func (l *RecordList) Retired() uint64 {
	return l.retired.LoadAcquire()
}

// Cap returns the record capacity.
func (l *RecordList) Cap() int {
	return l.ring.capacity()
}

// Quiescent reports whether no record is waiting or in flight.
func (l *RecordList) Quiescent() bool {
	return l.outstanding.Load() == 0
}

// WaitQuiescent blocks the calling goroutine until the list is quiescent.
func (l *RecordList) WaitQuiescent() {
	l.mu.Lock()
	for l.outstanding.Load() > 0 {
		l.idle.Wait()
	}
	l.mu.Unlock()
}

// WaitRetired blocks the calling goroutine until at least n records have
// been retired.
func (l *RecordList) WaitRetired(n uint64) {
	l.mu.Lock()
	for l.retired.LoadAcquire() < n {
		l.idle.Wait()
	}
	l.mu.Unlock()
}

// close stops further enqueues. Records already accepted stay outstanding.
func (l *RecordList) close() {
	l.closed.StoreRelease(true)
}

// Closed reports whether the list stopped accepting records.
func (l *RecordList) Closed() bool {
	return l.closed.LoadAcquire()
}

// settle wakes waiters when the outstanding count reaches zero.
func (l *RecordList) settle(n int64) {
	if n == 0 {
		l.wake()
	}
}

func (l *RecordList) wake() {
	l.mu.Lock()
	l.idle.Broadcast()
	l.mu.Unlock()
}
