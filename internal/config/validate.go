// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"

	"code.hybscloud.com/clq"
	"github.com/rs/zerolog"
)

// Validate checks the manifest for structural errors.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Contexts) == 0 {
		errs = append(errs, errors.New("at least one context is required"))
	}
	names := make(map[string]bool, len(c.Contexts))
	for i, ctx := range c.Contexts {
		if ctx.Name == "" {
			errs = append(errs, fmt.Errorf("contexts[%d]: name is required", i))
		} else if names[ctx.Name] {
			errs = append(errs, fmt.Errorf("contexts[%d]: duplicate name %q", i, ctx.Name))
		}
		names[ctx.Name] = true

		if len(ctx.Devices) == 0 {
			errs = append(errs, fmt.Errorf("context %q: at least one device is required", ctx.Name))
		}
		devices := make(map[string]bool, len(ctx.Devices))
		for _, d := range ctx.Devices {
			if d == "" {
				errs = append(errs, fmt.Errorf("context %q: empty device name", ctx.Name))
			} else if devices[d] {
				errs = append(errs, fmt.Errorf("context %q: duplicate device %q", ctx.Name, d))
			}
			devices[d] = true
		}
		if ctx.MaxQueues < 0 {
			errs = append(errs, fmt.Errorf("context %q: max_queues must be >= 0", ctx.Name))
		}
	}

	if c.Queue.Capacity < 2 || c.Queue.Capacity > clq.MaxRecordCapacity {
		errs = append(errs, fmt.Errorf("queue.capacity must be in [2, %d], got %d", clq.MaxRecordCapacity, c.Queue.Capacity))
	}

	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
			errs = append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}

	return errors.Join(errs...)
}
