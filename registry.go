// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"slices"
	"sync"
)

// Registry is a context's ordered collection of live command queues.
//
// A queue is inserted once it is fully formed and removed when its storage
// is reclaimed. Registry is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	queues []*CommandQueue
	limit  int
}

// NewRegistry creates a registry holding at most limit queues.
// A limit of 0 means unbounded.
func NewRegistry(limit int) *Registry {
	if limit < 0 {
		limit = 0
	}
	return &Registry{limit: limit}
}

// Insert appends q to the registry.
// Returns ErrOutOfHostMemory if the registry is at its limit.
func (r *Registry) Insert(q *CommandQueue) error {
	if q == nil {
		return ErrInvalidCommandQueue
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit > 0 && len(r.queues) >= r.limit {
		return ErrOutOfHostMemory
	}
	r.queues = append(r.queues, q)
	return nil
}

// Remove drops q from the registry and reports whether it was present.
func (r *Registry) Remove(q *CommandQueue) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.Index(r.queues, q)
	if i < 0 {
		return false
	}
	r.queues = slices.Delete(r.queues, i, i+1)
	return true
}

// Contains reports whether q is registered.
func (r *Registry) Contains(q *CommandQueue) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.queues, q)
}

// Len returns the number of registered queues.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queues)
}

// Snapshot returns the registered queues in insertion order.
func (r *Registry) Snapshot() []*CommandQueue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.queues)
}
