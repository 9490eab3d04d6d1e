// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"strings"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/google/uuid"
)

// Properties is the execution property bitset of a command queue.
type Properties uint64

// Recognized property bits.
const (
	// OutOfOrderExec lets the executor run commands in any order.
	OutOfOrderExec Properties = 1 << 0

	// Profiling enables timing capture for each command.
	Profiling Properties = 1 << 1
)

// recognizedProperties is the set of bits Create and SetProperty look at.
// Other bits are ignored.
const recognizedProperties = OutOfOrderExec | Profiling

// Has reports whether every bit of p is set in ps.
func (ps Properties) Has(p Properties) bool {
	return ps&p == p
}

// String returns the set bits joined by '|', or "0" if none is set.
func (ps Properties) String() string {
	if ps&recognizedProperties == 0 {
		return "0"
	}
	var names []string
	if ps.Has(OutOfOrderExec) {
		names = append(names, "OUT_OF_ORDER_EXEC_MODE_ENABLE")
	}
	if ps.Has(Profiling) {
		names = append(names, "PROFILING_ENABLE")
	}
	return strings.Join(names, "|")
}

// Device is an opaque, comparable device handle.
//
// The zero Device is never a member of any context.
type Device uintptr

// handleSeq hands out process-unique handles for devices and contexts.
var handleSeq atomix.Uint64

func nextHandle() uintptr {
	return uintptr(handleSeq.AddAcqRel(1))
}

// NewDevice returns a fresh device handle.
func NewDevice() Device {
	return Device(nextHandle())
}

// Record is one unit of submitted work awaiting execution.
//
// The queue owns a record from Enqueue until the executor retires it.
// Kind and Payload are opaque to the queue.
type Record struct {
	ID         uuid.UUID
	Kind       string
	Payload    any
	EnqueuedAt time.Time
}

// NewRecord creates a record with a fresh ID.
func NewRecord(kind string, payload any) *Record {
	return &Record{ID: uuid.New(), Kind: kind, Payload: payload}
}

// State is the lifecycle state of a command queue.
type State uint64

const (
	// Live queues accept Retain, Release, Enqueue and SetProperty.
	Live State = iota
	// PendingDestroy queues have reached a zero reference count and wait
	// for their outstanding records to be retired.
	PendingDestroy
	// Destroyed queues are unregistered and their record list is closed.
	Destroyed
)

func (s State) String() string {
	switch s {
	case Live:
		return "live"
	case PendingDestroy:
		return "pending-destroy"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}
