// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// recordRing is a bounded multi-producer single-consumer FIFO of records.
// push returns ErrWouldBlock when full, pop when empty.
type recordRing interface {
	push(r *Record) error
	pop() (*Record, error)
	capacity() int
}

// faaRing claims producer positions with fetch-and-add (SCQ-style).
//
// Blind FAA claims need 2n physical slots for capacity n.
type faaRing struct {
	_     pad
	head  atomix.Uint64 // executor index; producers read it for the full check
	_     pad
	tail  atomix.Uint64 // producer index (FAA); may overshoot head+n under contention
	_     pad
	slots []faaSlot
	n     uint64 // usable capacity
	size  uint64 // 2n
	mask  uint64 // 2n - 1
}

type faaSlot struct {
	cycle atomix.Uint64
	rec   *Record
	_     padPtr
}

func newFAARing(capacity int) *faaRing {
	n := uint64(roundToPow2(capacity))
	size := n * 2
	r := &faaRing{
		slots: make([]faaSlot, size),
		n:     n,
		size:  size,
		mask:  size - 1,
	}
	for i := range size {
		r.slots[i].cycle.StoreRelaxed(i / n)
	}
	return r
}

func (r *faaRing) push(rec *Record) error {
	if r.tail.LoadAcquire() >= r.head.LoadAcquire()+r.n {
		return ErrWouldBlock
	}
	r.publish(r.tail.AddAcqRel(1)-1, rec)
	return nil
}

// publish fills the claimed position pos. A claimed position is never
// given up: the executor stops at it until it is filled. Producers racing
// past the full check may claim a slot whose previous lap is still
// unconsumed; they wait here for the executor to free it.
func (r *faaRing) publish(pos uint64, rec *Record) {
	slot := &r.slots[pos&r.mask]
	want := pos / r.n
	sw := spin.Wait{}
	for slot.cycle.LoadAcquire() != want {
		sw.Once()
	}
	slot.rec = rec
	slot.cycle.StoreRelease(want + 1)
}

func (r *faaRing) pop() (*Record, error) {
	head := r.head.LoadRelaxed()
	slot := &r.slots[head&r.mask]
	if slot.cycle.LoadAcquire() != head/r.n+1 {
		return nil, ErrWouldBlock
	}
	rec := slot.rec
	slot.rec = nil
	slot.cycle.StoreRelease((head + r.size) / r.n)
	r.head.StoreRelease(head + 1)
	return rec, nil
}

func (r *faaRing) capacity() int {
	return int(r.n)
}

// casRing claims producer positions with compare-and-swap.
//
// n physical slots for capacity n; producers contend on the tail CAS.
type casRing struct {
	_     pad
	head  atomix.Uint64
	_     pad
	tail  atomix.Uint64
	_     pad
	slots []casSlot
	n     uint64
	mask  uint64
}

type casSlot struct {
	seq atomix.Uint64
	rec *Record
	_   padPtr
}

func newCASRing(capacity int) *casRing {
	n := uint64(roundToPow2(capacity))
	r := &casRing{
		slots: make([]casSlot, n),
		n:     n,
		mask:  n - 1,
	}
	for i := range n {
		r.slots[i].seq.StoreRelaxed(i)
	}
	return r
}

func (r *casRing) push(rec *Record) error {
	sw := spin.Wait{}
	for {
		tail := r.tail.LoadAcquire()
		if tail >= r.head.LoadAcquire()+r.n {
			return ErrWouldBlock
		}
		slot := &r.slots[tail&r.mask]
		seq := slot.seq.LoadAcquire()
		switch {
		case seq == tail:
			if r.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.rec = rec
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		case seq < tail:
			return ErrWouldBlock
		}
		sw.Once()
	}
}

func (r *casRing) pop() (*Record, error) {
	head := r.head.LoadRelaxed()
	slot := &r.slots[head&r.mask]
	if slot.seq.LoadAcquire() != head+1 {
		return nil, ErrWouldBlock
	}
	rec := slot.rec
	slot.rec = nil
	slot.seq.StoreRelease(head + r.n)
	r.head.StoreRelease(head + 1)
	return rec, nil
}

func (r *casRing) capacity() int {
	return int(r.n)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padPtr fills a cache line after an 8-byte sequence and a pointer.
type padPtr [64 - 8 - ptrSize]byte
