// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"reflect"
	"slices"
)

// Context is the owning collaborator a command queue is created against.
//
// Devices must return the same set for the whole lifetime of the context;
// a queue validates its device against it only once, at creation.
// Queues returns the registry every queue created against the context
// registers itself into.
type Context interface {
	Handle() uintptr
	Devices() []Device
	Queues() *Registry
}

// HostContext is an in-process Context with a fixed device set.
type HostContext struct {
	handle  uintptr
	devices []Device
	names   map[Device]string
	queues  *Registry
}

// NewContext creates a context over devices.
// The registry limit bounds how many queues may be registered at once;
// 0 means unbounded.
func NewContext(registryLimit int, devices ...Device) *HostContext {
	return &HostContext{
		handle:  nextHandle(),
		devices: slices.Clone(devices),
		names:   make(map[Device]string, len(devices)),
		queues:  NewRegistry(registryLimit),
	}
}

// NewNamedContext creates a context with one fresh device per name.
// The returned devices are in the order of names.
func NewNamedContext(registryLimit int, names ...string) (*HostContext, []Device) {
	devices := make([]Device, len(names))
	for i := range names {
		devices[i] = NewDevice()
	}
	c := NewContext(registryLimit, devices...)
	for i, name := range names {
		c.names[devices[i]] = name
	}
	return c, devices
}

// Handle returns the context handle.
func (c *HostContext) Handle() uintptr {
	return c.handle
}

// Devices returns a copy of the context's device set.
func (c *HostContext) Devices() []Device {
	return slices.Clone(c.devices)
}

// Queues returns the context's queue registry.
func (c *HostContext) Queues() *Registry {
	return c.queues
}

// DeviceName returns the name given to d by NewNamedContext.
func (c *HostContext) DeviceName(d Device) (string, bool) {
	name, ok := c.names[d]
	return name, ok
}

// isNilContext reports whether ctx is absent, including a typed nil of any
// Context implementation stored in the interface.
func isNilContext(ctx Context) bool {
	if ctx == nil {
		return true
	}
	v := reflect.ValueOf(ctx)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// hasDevice scans ctx's device set for d.
func hasDevice(ctx Context, d Device) bool {
	if d == 0 {
		return false
	}
	return slices.Contains(ctx.Devices(), d)
}
