// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package executor drains a command queue's record list.
//
// It is the reference consumer for the executor contract of package clq:
// one goroutine takes records in order, runs them, and retires each one.
package executor

import (
	"context"
	"time"

	"code.hybscloud.com/clq"
	"code.hybscloud.com/iox"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunFunc executes one record. A returned error is logged; the record is
// retired either way.
type RunFunc func(ctx context.Context, rec *clq.Record) error

// Stats summarizes an executor run.
type Stats struct {
	Executed int
	Failed   int
	Busy     time.Duration
}

// Executor drains one queue.
type Executor struct {
	queue  *clq.CommandQueue
	run    RunFunc
	logger zerolog.Logger
}

// New creates an executor for q.
func New(q *clq.CommandQueue, run RunFunc) *Executor {
	return &Executor{
		queue:  q,
		run:    run,
		logger: log.Logger.With().Str("component", "executor").Logger(),
	}
}

// Run takes and retires records until ctx is done or the queue has been
// released and fully drained.
func (e *Executor) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	recs := e.queue.Records()
	backoff := iox.Backoff{}

	for {
		rec, err := recs.Next()
		if err != nil {
			if !clq.IsWouldBlock(err) {
				return stats, err
			}
			if recs.Closed() && recs.Quiescent() {
				return stats, nil
			}
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}
			backoff.Wait()
			continue
		}
		backoff.Reset()

		start := time.Now()
		runErr := e.run(ctx, rec)
		stats.Busy += time.Since(start)
		stats.Executed++
		if runErr != nil {
			stats.Failed++
			e.logger.Error().
				Str("record", rec.ID.String()).
				Str("kind", rec.Kind).
				Err(runErr).
				Msg("Record failed")
		} else {
			e.logger.Debug().
				Str("record", rec.ID.String()).
				Str("kind", rec.Kind).
				Dur("wait", start.Sub(rec.EnqueuedAt)).
				Msg("Record executed")
		}

		if err := recs.Retire(rec); err != nil {
			return stats, err
		}
	}
}
