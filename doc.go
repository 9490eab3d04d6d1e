// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package clq provides the command queue object of a host-side
// compute-accelerator runtime.
//
// A command queue is the ordered channel through which a client submits
// work to one device of one context. The package owns the queue object and
// its list of not-yet-executed command records. Executing the records is
// the job of an external executor.
//
// # Quick Start
//
//	ctx, devs := clq.NewNamedContext(0, "gpu0")
//	q, err := clq.Create(ctx, devs[0], 0)
//	if err != nil {
//	    return err
//	}
//	defer q.Release()
//
// Builder API for non-default options:
//
//	q, err := clq.New().Capacity(4096).Compact().Create(ctx, devs[0], 0)
//
// # Lifecycle
//
// Create validates the context and the device, then registers the new queue
// in the context's [Registry] with a reference count of 1. Any failure
// leaves the registry untouched.
//
//	clq.Retain(q)  // refs: 2
//	clq.Release(q) // refs: 1
//	clq.Release(q) // refs: 0, destruction starts
//	<-q.Done()     // storage reclaimed, queue unregistered
//
// The release that drops the count to zero closes the record list to new
// records. The queue is unregistered only after the executor has retired
// every outstanding record (quiesce-then-free). Release never blocks.
//
// # Attribute Queries
//
// [GetInfo] implements the two-phase query protocol:
//
//	var size int
//	clq.GetInfo(q, clq.InfoReferenceCount, nil, &size) // size == 4
//	buf := make([]byte, size)
//	clq.GetInfo(q, clq.InfoReferenceCount, buf, nil)
//
// A buffer shorter than the attribute's width fails with [ErrInvalidValue]
// and is not written. [CommandQueue.Info] returns the typed value directly.
//
// # Properties
//
// Two properties are recognized: [OutOfOrderExec] and [Profiling].
//
// By default any request naming either of them, at Create or at
// SetProperty, fails with [ErrInvalidValue]. This matches the reference
// runtime, whose validation rejects both flags before its per-flag logic.
// Queues built with [Builder.PropertyToggling] honor the flags instead:
//
//	q, _ := clq.New().PropertyToggling().Create(ctx, dev, clq.Profiling)
//	var old clq.Properties
//	q.SetProperty(clq.OutOfOrderExec, true, &old) // blocks until earlier records retire
//
// SetProperty always reports the previous bitset through old, even when it
// fails.
//
// # Executor Contract
//
// Producers append with [CommandQueue.Enqueue]. A single executor goroutine
// takes records with [RecordList.Next] and reports completion with
// [RecordList.Retire]:
//
//	recs := q.Records()
//	backoff := iox.Backoff{}
//	for {
//	    rec, err := recs.Next()
//	    if err != nil {
//	        backoff.Wait()
//	        continue
//	    }
//	    backoff.Reset()
//	    run(rec)
//	    recs.Retire(rec)
//	}
//
// Queue destruction waits for the list to become quiescent, and an
// ordering-mode change waits for the records accepted before it. An
// executor that stops retiring records stalls both.
//
// # Error Handling
//
// Control-plane failures are [Status] values usable with [errors.Is]:
//
//	ErrInvalidContext, ErrInvalidDevice, ErrInvalidCommandQueue,
//	ErrInvalidValue, ErrOutOfHostMemory
//
// [StatusOf] maps any error back to its numeric status code. Record list
// backpressure returns [ErrWouldBlock], sourced from
// [code.hybscloud.com/iox].
//
// # Thread Safety
//
// All control-plane operations are safe for concurrent use. The reference
// count and the flags are atomic; destruction runs exactly once even when
// several Release calls race to zero.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives with
// explicit memory ordering, [code.hybscloud.com/spin] for CAS retry pauses,
// [code.hybscloud.com/iox] for semantic errors, and zerolog for structured
// logging.
package clq
