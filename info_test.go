// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq_test

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unsafe"

	"code.hybscloud.com/clq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var handleSize = int(unsafe.Sizeof(uintptr(0)))

func newQueue(t *testing.T, b *clq.Builder) (*clq.HostContext, clq.Device, *clq.CommandQueue) {
	t.Helper()
	ctx, devs := clq.NewNamedContext(0, "D")
	if b == nil {
		b = clq.New()
	}
	q, err := b.Create(ctx, devs[0], 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Release() })
	return ctx, devs[0], q
}

// =============================================================================
// Two-phase protocol
// =============================================================================

func TestGetInfoSizeQuery(t *testing.T) {
	_, _, q := newQueue(t, nil)
	for _, tc := range []struct {
		param clq.QueueInfo
		size  int
	}{
		{clq.InfoContext, handleSize},
		{clq.InfoDevice, handleSize},
		{clq.InfoReferenceCount, 4},
		{clq.InfoProperties, 8},
	} {
		size := -1
		require.NoError(t, clq.GetInfo(q, tc.param, nil, &size), tc.param.String())
		assert.Equal(t, tc.size, size, tc.param.String())
	}
}

func TestGetInfoValues(t *testing.T) {
	ctx, dev, q := newQueue(t, nil)
	require.NoError(t, q.Retain())
	defer q.Release()

	read := func(param clq.QueueInfo) []byte {
		size := 0
		require.NoError(t, clq.GetInfo(q, param, nil, &size))
		buf := make([]byte, size)
		got := 0
		require.NoError(t, clq.GetInfo(q, param, buf, &got))
		assert.Equal(t, size, got)
		return buf
	}
	handle := func(b []byte) uintptr {
		if len(b) == 4 {
			return uintptr(binary.NativeEndian.Uint32(b))
		}
		return uintptr(binary.NativeEndian.Uint64(b))
	}

	assert.Equal(t, ctx.Handle(), handle(read(clq.InfoContext)))
	assert.Equal(t, uintptr(dev), handle(read(clq.InfoDevice)))
	assert.Equal(t, uint32(2), binary.NativeEndian.Uint32(read(clq.InfoReferenceCount)))
	assert.Equal(t, uint64(0), binary.NativeEndian.Uint64(read(clq.InfoProperties)))
}

// TestGetInfoShortBuffer leaves an undersized buffer untouched.
func TestGetInfoShortBuffer(t *testing.T) {
	_, _, q := newQueue(t, nil)

	buf := []byte{0xAA, 0xAA, 0xAA}
	size := -1
	err := clq.GetInfo(q, clq.InfoReferenceCount, buf, &size)
	assert.ErrorIs(t, err, clq.ErrInvalidValue)
	assert.Equal(t, []byte{0xAA, 0xAA, 0xAA}, buf)
	assert.Equal(t, -1, size)

	buf = bytes.Repeat([]byte{0xAA}, 7)
	err = clq.GetInfo(q, clq.InfoProperties, buf, nil)
	assert.ErrorIs(t, err, clq.ErrInvalidValue)
	assert.Equal(t, bytes.Repeat([]byte{0xAA}, 7), buf)
}

// TestGetInfoLargerBuffer writes only the first size bytes.
func TestGetInfoLargerBuffer(t *testing.T) {
	_, _, q := newQueue(t, nil)

	buf := bytes.Repeat([]byte{0xAA}, 16)
	size := 0
	require.NoError(t, clq.GetInfo(q, clq.InfoReferenceCount, buf, &size))
	assert.Equal(t, 4, size)
	assert.Equal(t, uint32(1), binary.NativeEndian.Uint32(buf))
	assert.Equal(t, bytes.Repeat([]byte{0xAA}, 12), buf[4:])
}

func TestGetInfoNilSizeOut(t *testing.T) {
	_, _, q := newQueue(t, nil)
	buf := make([]byte, 4)
	require.NoError(t, clq.GetInfo(q, clq.InfoReferenceCount, buf, nil))
	assert.Equal(t, uint32(1), binary.NativeEndian.Uint32(buf))
	require.NoError(t, clq.GetInfo(q, clq.InfoReferenceCount, nil, nil))
}

func TestGetInfoUnknownAttribute(t *testing.T) {
	_, _, q := newQueue(t, nil)
	size := -1
	buf := make([]byte, 8)
	err := clq.GetInfo(q, clq.QueueInfo(0x1094), buf, &size)
	assert.ErrorIs(t, err, clq.ErrInvalidValue)
	assert.Equal(t, -1, size)
	assert.Equal(t, "QUEUE_INFO(unknown)", clq.QueueInfo(0x1094).String())
}

func TestGetInfoNilQueue(t *testing.T) {
	size := 0
	err := clq.GetInfo(nil, clq.InfoReferenceCount, nil, &size)
	assert.ErrorIs(t, err, clq.ErrInvalidCommandQueue)
}

// TestGetInfoAfterRelease still answers on a queue whose count reached zero.
func TestGetInfoAfterRelease(t *testing.T) {
	ctx, devs := clq.NewNamedContext(0, "D")
	q, err := clq.Create(ctx, devs[0], 0)
	require.NoError(t, err)
	require.NoError(t, q.Release())

	v, err := q.Info(clq.InfoReferenceCount)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v.Uint32())
}

// =============================================================================
// Typed values
// =============================================================================

func TestInfoTyped(t *testing.T) {
	ctx, dev, q := newQueue(t, clq.New().PropertyToggling())

	v, err := q.Info(clq.InfoContext)
	require.NoError(t, err)
	assert.Equal(t, clq.InfoContext, v.Param())
	assert.Equal(t, ctx.Handle(), v.Handle())

	v, err = q.Info(clq.InfoDevice)
	require.NoError(t, err)
	assert.Equal(t, uintptr(dev), v.Handle())

	require.NoError(t, q.SetProperty(clq.Profiling, true, nil))
	v, err = q.Info(clq.InfoProperties)
	require.NoError(t, err)
	assert.Equal(t, clq.Profiling, v.Properties())
	assert.Equal(t, 8, v.Size())
}
