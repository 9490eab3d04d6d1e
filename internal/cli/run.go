// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"code.hybscloud.com/clq"
	"code.hybscloud.com/clq/internal/executor"
	"code.hybscloud.com/iox"
	"github.com/spf13/cobra"
)

type runOptions struct {
	context     string
	device      string
	records     int
	toggleOrder bool
	timeout     time.Duration
}

func newRunCmd(a *app) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Push records through one queue with the reference executor",
		Long: `run creates a queue on one device, enqueues records while the reference
executor drains them, optionally switches the queue to out-of-order mode
midway, then releases the queue and waits for it to be reclaimed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.context, "context", "", "context name (default: first in manifest)")
	cmd.Flags().StringVar(&opts.device, "device", "", "device name (default: first of the context)")
	cmd.Flags().IntVar(&opts.records, "records", 100, "number of records to enqueue")
	cmd.Flags().BoolVar(&opts.toggleOrder, "toggle-order", false, "enable out-of-order execution halfway through")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts runOptions) error {
	rc, dev, err := a.pick(opts.context, opts.device)
	if err != nil {
		return err
	}

	q, err := a.builder().Create(rc.ctx, dev, 0)
	if err != nil {
		return fmt.Errorf("create queue: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	type result struct {
		stats executor.Stats
		err   error
	}
	done := make(chan result, 1)
	exec := executor.New(q, func(ctx context.Context, rec *clq.Record) error { return nil })
	go func() {
		stats, err := exec.Run(ctx)
		done <- result{stats, err}
	}()

	backoff := iox.Backoff{}
	for i := range opts.records {
		rec := clq.NewRecord("demo", i)
		for {
			err := q.Enqueue(rec)
			if err == nil {
				break
			}
			if !clq.IsWouldBlock(err) {
				return fmt.Errorf("enqueue: %w", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			backoff.Wait()
		}
		backoff.Reset()

		if opts.toggleOrder && i == opts.records/2 {
			var old clq.Properties
			err := q.SetProperty(clq.OutOfOrderExec, true, &old)
			fmt.Fprintf(cmd.OutOrStdout(), "set-property out-of-order: %s (was %s, now %s)\n",
				clq.StatusOf(err).Name(), old, q.Properties())
		}
	}

	if err := q.Release(); err != nil {
		return fmt.Errorf("release queue: %w", err)
	}

	res := <-done
	if res.err != nil {
		return fmt.Errorf("executor: %w", res.err)
	}
	select {
	case <-q.Done():
	case <-ctx.Done():
		return fmt.Errorf("queue not reclaimed: %w", ctx.Err())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "executed: %d\nfailed: %d\nretired: %d\nregistered queues: %d\n",
		res.stats.Executed, res.stats.Failed, q.Records().Retired(), rc.ctx.Queues().Len())
	return nil
}

// pick resolves a context and device by manifest name; empty names pick
// the first entry.
func (a *app) pick(ctxName, devName string) (runtimeContext, clq.Device, error) {
	ctxs := a.contexts()
	i := 0
	if ctxName != "" {
		i = slices.IndexFunc(ctxs, func(rc runtimeContext) bool { return rc.name == ctxName })
		if i < 0 {
			return runtimeContext{}, 0, fmt.Errorf("unknown context %q", ctxName)
		}
	}
	rc := ctxs[i]

	j := 0
	if devName != "" {
		j = slices.Index(rc.names, devName)
		if j < 0 {
			return runtimeContext{}, 0, fmt.Errorf("context %q has no device %q", rc.name, devName)
		}
	}
	return rc, rc.devices[j], nil
}
