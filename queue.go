// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"math"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/clq/internal/metrics"
	"code.hybscloud.com/spin"
	"github.com/rs/zerolog"
)

// CommandQueue is an ordered channel of work for one device of one context.
//
// The context and device are fixed at creation. The reference count, the
// property flags and the lifecycle state are atomic; a queue may be used
// from any number of goroutines.
type CommandQueue struct {
	context Context
	device  Device

	refs       atomix.Uint32
	state      atomix.Uint64
	outOfOrder atomix.Bool
	profiling  atomix.Bool

	records *RecordList

	// Serializes ordering-mode changes so only one caller drains at a time.
	orderMu sync.Mutex

	toggling bool
	logger   zerolog.Logger
	done     chan struct{}
}

// Create creates a command queue on device of ctx with default options.
//
// Fails with ErrInvalidContext if ctx is absent, ErrInvalidDevice if device
// is not one of ctx's devices, ErrInvalidValue if properties names
// OutOfOrderExec or Profiling, and ErrOutOfHostMemory if the queue cannot
// be allocated or registered. On failure nothing is registered.
func Create(ctx Context, device Device, properties Properties) (*CommandQueue, error) {
	return New().Create(ctx, device, properties)
}

// Create creates a command queue with b's options.
// See the package-level Create for the error contract.
func (b *Builder) Create(ctx Context, device Device, properties Properties) (q *CommandQueue, err error) {
	defer func() { metrics.RecordCreate(StatusOf(err).Name()) }()

	if isNilContext(ctx) {
		return nil, ErrInvalidContext
	}
	if !hasDevice(ctx, device) {
		return nil, ErrInvalidDevice
	}

	cq := &CommandQueue{
		context:  ctx,
		device:   device,
		toggling: b.opts.propertyToggling,
		logger:   b.opts.log(),
		done:     make(chan struct{}),
	}
	// Every early return below drops the partial queue.
	formed := false
	defer func() {
		if !formed {
			cq.unwind()
		}
	}()

	if properties&recognizedProperties != 0 {
		if !cq.toggling {
			return nil, ErrInvalidValue
		}
		cq.outOfOrder.StoreRelease(properties.Has(OutOfOrderExec))
		cq.profiling.StoreRelease(properties.Has(Profiling))
	}

	if b.opts.capacity > MaxRecordCapacity {
		return nil, ErrOutOfHostMemory
	}
	cq.records = newRecordList(b.opts.capacity, b.opts.compact)

	cq.refs.StoreRelease(1)
	if err := ctx.Queues().Insert(cq); err != nil {
		return nil, err
	}
	formed = true

	metrics.QueueCreated()
	cq.logger.Debug().
		Uint64("context", uint64(ctx.Handle())).
		Uint64("device", uint64(device)).
		Str("properties", cq.Properties().String()).
		Int("capacity", cq.records.Cap()).
		Msg("Command queue created")
	return cq, nil
}

// unwind releases what a failed Create allocated, newest first.
func (q *CommandQueue) unwind() {
	if q.records != nil {
		q.records.close()
		q.records = nil
	}
	q.refs.StoreRelease(0)
	q.state.StoreRelease(uint64(Destroyed))
	close(q.done)
}

// Retain increments the reference count of q.
// Returns ErrInvalidCommandQueue if q is nil or already released to zero,
// and ErrOutOfHostMemory if the count is saturated.
func Retain(q *CommandQueue) error {
	return q.Retain()
}

// Release decrements the reference count of q.
// Returns ErrInvalidCommandQueue if q is nil or already released to zero.
func Release(q *CommandQueue) error {
	return q.Release()
}

// Retain increments the reference count.
func (q *CommandQueue) Retain() error {
	if q == nil {
		return ErrInvalidCommandQueue
	}
	sw := spin.Wait{}
	for {
		n := q.refs.LoadAcquire()
		if n == 0 {
			return ErrInvalidCommandQueue
		}
		if n == math.MaxUint32 {
			return ErrOutOfHostMemory
		}
		if q.refs.CompareAndSwapAcqRel(n, n+1) {
			q.logger.Debug().Uint32("refs", n+1).Msg("Command queue retained")
			return nil
		}
		sw.Once()
	}
}

// Release decrements the reference count.
//
// The release that drops the count to zero starts destruction: the record
// list stops accepting records, and the queue is unregistered once every
// outstanding record has been retired by the executor. Release itself
// never blocks; use Done to wait for reclamation.
func (q *CommandQueue) Release() error {
	if q == nil {
		return ErrInvalidCommandQueue
	}
	sw := spin.Wait{}
	for {
		n := q.refs.LoadAcquire()
		if n == 0 {
			return ErrInvalidCommandQueue
		}
		if q.refs.CompareAndSwapAcqRel(n, n-1) {
			metrics.RecordRelease()
			q.logger.Debug().Uint32("refs", n-1).Msg("Command queue released")
			if n == 1 {
				q.beginDestroy()
			}
			return nil
		}
		sw.Once()
	}
}

// beginDestroy runs exactly once, from the release that won the 1→0 edge.
func (q *CommandQueue) beginDestroy() {
	q.state.StoreRelease(uint64(PendingDestroy))
	q.records.close()
	if q.records.Quiescent() {
		q.destroy()
		return
	}
	q.logger.Warn().
		Int("outstanding", q.records.Outstanding()).
		Msg("Command queue released with outstanding records, waiting for executor")
	go func() {
		start := time.Now()
		q.records.WaitQuiescent()
		metrics.ObserveDrainWait("release", time.Since(start))
		q.destroy()
	}()
}

func (q *CommandQueue) destroy() {
	q.context.Queues().Remove(q)
	q.state.StoreRelease(uint64(Destroyed))
	metrics.QueueDestroyed()
	q.logger.Debug().Uint64("retired", q.records.Retired()).Msg("Command queue destroyed")
	close(q.done)
}

// Done returns a channel closed once q's storage has been reclaimed.
func (q *CommandQueue) Done() <-chan struct{} {
	return q.done
}

// State returns the lifecycle state of q.
func (q *CommandQueue) State() State {
	return State(q.state.LoadAcquire())
}

// Context returns the context q was created against.
func (q *CommandQueue) Context() Context {
	return q.context
}

// Device returns the device q targets.
func (q *CommandQueue) Device() Device {
	return q.device
}

// ReferenceCount returns the current reference count.
func (q *CommandQueue) ReferenceCount() uint32 {
	return q.refs.LoadAcquire()
}

// Records returns the record list for the executor.
func (q *CommandQueue) Records() *RecordList {
	return q.records
}

// Enqueue appends rec to q's record list.
//
// Returns ErrInvalidCommandQueue if q is nil or released, ErrWouldBlock if
// the record list is full.
func (q *CommandQueue) Enqueue(rec *Record) error {
	if q == nil || q.records == nil {
		return ErrInvalidCommandQueue
	}
	return q.records.Enqueue(rec)
}
