// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"time"

	"code.hybscloud.com/clq/internal/metrics"
)

// Properties returns the enabled properties of q as a bitset.
func (q *CommandQueue) Properties() Properties {
	var ps Properties
	if q.outOfOrder.LoadAcquire() {
		ps |= OutOfOrderExec
	}
	if q.profiling.LoadAcquire() {
		ps |= Profiling
	}
	return ps
}

// SetProperty enables or disables properties on q.
// See [CommandQueue.SetProperty].
func SetProperty(q *CommandQueue, properties Properties, enable bool, old *Properties) error {
	return q.SetProperty(properties, enable, old)
}

// SetProperty enables or disables properties on q.
//
// old, when non-nil, receives the properties as they stood before the call,
// including when the call then fails.
//
// Unless the queue was built with PropertyToggling, a request naming
// OutOfOrderExec or Profiling fails with ErrInvalidValue and nothing
// changes. With PropertyToggling, switching OutOfOrderExec blocks the
// calling goroutine until every record already in the queue has been
// retired, so the new ordering mode never applies to earlier work.
func (q *CommandQueue) SetProperty(properties Properties, enable bool, old *Properties) error {
	if q == nil {
		return ErrInvalidCommandQueue
	}
	if old != nil {
		*old = q.Properties()
	}
	if properties&recognizedProperties == 0 {
		return nil
	}
	if !q.toggling {
		return ErrInvalidValue
	}
	if q.State() != Live {
		return ErrInvalidCommandQueue
	}

	if properties.Has(OutOfOrderExec) {
		q.orderMu.Lock()
		if q.outOfOrder.LoadAcquire() != enable {
			// Only records accepted before this point are waited for.
			present := q.records.Accepted()
			if retired := q.records.Retired(); retired < present {
				start := time.Now()
				q.logger.Debug().
					Uint64("pending", present-retired).
					Bool("out_of_order", enable).
					Msg("Waiting for queued records before switching ordering mode")
				q.records.WaitRetired(present)
				metrics.ObserveDrainWait("ordering", time.Since(start))
			}
			q.outOfOrder.StoreRelease(enable)
		}
		q.orderMu.Unlock()
	}
	if properties.Has(Profiling) {
		q.profiling.StoreRelease(enable)
	}

	q.logger.Debug().Str("properties", q.Properties().String()).Msg("Command queue properties updated")
	return nil
}
