// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"errors"
	"strconv"

	"code.hybscloud.com/iox"
)

// Status is a runtime status code. Every non-success Status is an error.
//
// The numeric values match the status codes of the accelerator runtime API,
// so a Status can be handed across an API boundary unchanged.
type Status int32

// Status codes.
const (
	Success             Status = 0
	OutOfHostMemory     Status = -6
	InvalidValue        Status = -30
	InvalidDevice       Status = -33
	InvalidContext      Status = -34
	InvalidCommandQueue Status = -36
)

// Sentinel errors for the control-plane operations.
//
// Compare with [errors.Is]; wrapped errors are supported.
var (
	// ErrInvalidContext is returned by Create when the context is absent.
	ErrInvalidContext error = InvalidContext

	// ErrInvalidDevice is returned by Create when the device is not one of
	// the context's devices.
	ErrInvalidDevice error = InvalidDevice

	// ErrInvalidCommandQueue is returned when the queue handle is absent,
	// or when a released queue is retained or enqueued to.
	ErrInvalidCommandQueue error = InvalidCommandQueue

	// ErrInvalidValue reports a malformed property bitset, an undersized
	// info buffer, or an unknown info attribute.
	ErrInvalidValue error = InvalidValue

	// ErrOutOfHostMemory reports an allocation failure while creating a
	// queue, its record list, or its registry entry.
	ErrOutOfHostMemory error = OutOfHostMemory
)

// ErrWouldBlock indicates a record list operation cannot proceed immediately.
//
// For Enqueue: the record list is full (backpressure)
// For Next: no record is waiting for the executor
//
// ErrWouldBlock is a control flow signal, not a failure. It is an alias for
// [iox.ErrWouldBlock].
var ErrWouldBlock = iox.ErrWouldBlock

// Error implements the error interface.
func (s Status) Error() string {
	switch s {
	case Success:
		return "clq: success"
	case OutOfHostMemory:
		return "clq: out of host memory"
	case InvalidValue:
		return "clq: invalid value"
	case InvalidDevice:
		return "clq: invalid device"
	case InvalidContext:
		return "clq: invalid context"
	case InvalidCommandQueue:
		return "clq: invalid command queue"
	}
	return "clq: status " + strconv.Itoa(int(s))
}

// Name returns the symbolic name of s, e.g. "INVALID_VALUE".
func (s Status) Name() string {
	switch s {
	case Success:
		return "SUCCESS"
	case OutOfHostMemory:
		return "OUT_OF_HOST_MEMORY"
	case InvalidValue:
		return "INVALID_VALUE"
	case InvalidDevice:
		return "INVALID_DEVICE"
	case InvalidContext:
		return "INVALID_CONTEXT"
	case InvalidCommandQueue:
		return "INVALID_COMMAND_QUEUE"
	}
	return strconv.Itoa(int(s))
}

// StatusOf maps err to its Status code.
// Returns Success for nil and InvalidValue for errors that carry no Status.
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return InvalidValue
}

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
