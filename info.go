// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import "encoding/binary"

// QueueInfo identifies a command queue attribute.
type QueueInfo uint32

// Queue attributes. The values match the runtime API's attribute ids.
const (
	InfoContext        QueueInfo = 0x1090
	InfoDevice         QueueInfo = 0x1091
	InfoReferenceCount QueueInfo = 0x1092
	InfoProperties     QueueInfo = 0x1093
)

func (p QueueInfo) String() string {
	switch p {
	case InfoContext:
		return "QUEUE_CONTEXT"
	case InfoDevice:
		return "QUEUE_DEVICE"
	case InfoReferenceCount:
		return "QUEUE_REFERENCE_COUNT"
	case InfoProperties:
		return "QUEUE_PROPERTIES"
	}
	return "QUEUE_INFO(unknown)"
}

// Natural widths of the attribute values in bytes.
const (
	handleWidth     = ptrSize
	refCountWidth   = 4
	propertiesWidth = 8
)

// InfoValue is the typed value of one queue attribute together with its
// natural byte width.
type InfoValue struct {
	param QueueInfo
	word  uint64
	width int
}

// Param returns the attribute the value belongs to.
func (v InfoValue) Param() QueueInfo { return v.param }

// Size returns the natural byte width of the value.
func (v InfoValue) Size() int { return v.width }

// Handle returns the value of InfoContext or InfoDevice.
func (v InfoValue) Handle() uintptr { return uintptr(v.word) }

// Uint32 returns the value of InfoReferenceCount.
func (v InfoValue) Uint32() uint32 { return uint32(v.word) }

// Properties returns the value of InfoProperties.
func (v InfoValue) Properties() Properties { return Properties(v.word) }

// CopyTo implements the two-phase query protocol.
//
// With a nil dst only the size is reported. A non-nil dst shorter than
// Size fails with ErrInvalidValue and dst is left untouched. Otherwise the
// first Size bytes of dst receive the value in native byte order.
// sizeOut, when non-nil, receives Size on success.
func (v InfoValue) CopyTo(dst []byte, sizeOut *int) error {
	if dst != nil {
		if len(dst) < v.width {
			return ErrInvalidValue
		}
		switch v.width {
		case 4:
			binary.NativeEndian.PutUint32(dst, uint32(v.word))
		case 8:
			binary.NativeEndian.PutUint64(dst, v.word)
		default:
			return ErrInvalidValue
		}
	}
	if sizeOut != nil {
		*sizeOut = v.width
	}
	return nil
}

// Info returns the typed value of param.
// Returns ErrInvalidCommandQueue for a nil queue, ErrInvalidValue for an
// unknown attribute.
func (q *CommandQueue) Info(param QueueInfo) (InfoValue, error) {
	if q == nil {
		return InfoValue{}, ErrInvalidCommandQueue
	}
	switch param {
	case InfoContext:
		return InfoValue{param: param, word: uint64(q.context.Handle()), width: handleWidth}, nil
	case InfoDevice:
		return InfoValue{param: param, word: uint64(q.device), width: handleWidth}, nil
	case InfoReferenceCount:
		return InfoValue{param: param, word: uint64(q.ReferenceCount()), width: refCountWidth}, nil
	case InfoProperties:
		return InfoValue{param: param, word: uint64(q.Properties()), width: propertiesWidth}, nil
	}
	return InfoValue{}, ErrInvalidValue
}

// GetInfo queries attribute param of q with the two-phase protocol.
//
// Pass a nil buf to learn the required size through sizeOut, then call
// again with a buffer of at least that size to fetch the value.
func GetInfo(q *CommandQueue, param QueueInfo, buf []byte, sizeOut *int) error {
	v, err := q.Info(param)
	if err != nil {
		return err
	}
	return v.CopyTo(buf, sizeOut)
}
