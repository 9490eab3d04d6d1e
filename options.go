// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultRecordCapacity is the record list capacity used by Create.
	DefaultRecordCapacity = 1024

	// MaxRecordCapacity is the largest record list capacity a queue may
	// allocate. Larger requests fail with ErrOutOfHostMemory.
	MaxRecordCapacity = 1 << 20
)

// Options configures queue creation.
type Options struct {
	// Record list
	capacity int
	compact  bool // CAS ring with n slots instead of FAA ring with 2n

	// Honor per-flag property requests instead of rejecting them
	propertyToggling bool

	logger *zerolog.Logger
}

// Builder creates command queues with fluent configuration.
//
// Example:
//
//	// Defaults: 1024-record FAA ring, reject-all property validation
//	q, err := clq.New().Create(ctx, dev, 0)
//
//	// Compact ring, per-flag property negotiation
//	q, err := clq.New().Capacity(256).Compact().PropertyToggling().
//	    Create(ctx, dev, clq.Profiling)
type Builder struct {
	opts Options
}

// New creates a queue builder with default options.
func New() *Builder {
	return &Builder{opts: Options{capacity: DefaultRecordCapacity}}
}

// Capacity sets the record list capacity.
// Capacity rounds up to the next power of 2, with a minimum of 2.
func (b *Builder) Capacity(n int) *Builder {
	b.opts.capacity = n
	return b
}

// Compact selects the CAS-based record ring with n physical slots instead
// of the FAA-based ring with 2n slots.
//
// Trade-off: half memory usage, reduced scalability under many producers.
func (b *Builder) Compact() *Builder {
	b.opts.compact = true
	return b
}

// PropertyToggling makes Create and SetProperty honor OutOfOrderExec and
// Profiling per flag. Without it, any request naming either flag is
// rejected with ErrInvalidValue.
func (b *Builder) PropertyToggling() *Builder {
	b.opts.propertyToggling = true
	return b
}

// Logger sets the logger for queues built by b.
// The default is the process-wide zerolog logger.
func (b *Builder) Logger(l zerolog.Logger) *Builder {
	b.opts.logger = &l
	return b
}

func (o *Options) log() zerolog.Logger {
	if o.logger != nil {
		return *o.logger
	}
	return log.Logger
}
