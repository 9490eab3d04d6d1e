// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package clq

import (
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FAA ring overshoot
// =============================================================================

// TestFAARingOvershootIsDelivered replays producers that all passed the full
// check against the same stale tail and then claimed positions a lap ahead.
// Every claimed position must reach the executor, and the ring must keep
// accepting afterwards.
func TestFAARingOvershootIsDelivered(t *testing.T) {
	if RaceEnabled {
		t.Skip("skip: record ring publishes through slot sequence ordering")
	}
	r := newFAARing(2)
	require.NoError(t, r.push(&Record{Payload: 0}))

	// Four producers read tail=1 < head+n and claim positions 1..4.
	// Position 4 maps onto slot 0, still holding position 0.
	var wg sync.WaitGroup
	for i := 1; i <= 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.publish(r.tail.AddAcqRel(1)-1, &Record{Payload: i})
		}()
	}

	var got []int
	deadline := time.Now().Add(5 * time.Second)
	for len(got) < 5 {
		rec, err := r.pop()
		if err != nil {
			if time.Now().After(deadline) {
				t.Fatalf("executor stalled after %v (head=%d tail=%d)",
					got, r.head.LoadAcquire(), r.tail.LoadAcquire())
			}
			time.Sleep(time.Millisecond)
			continue
		}
		got = append(got, rec.Payload.(int))
	}
	wg.Wait()

	assert.Equal(t, 0, got[0])
	sort.Ints(got)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

	require.NoError(t, r.push(&Record{Payload: 5}))
	rec, err := r.pop()
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Payload)
	assert.Equal(t, r.tail.LoadAcquire(), r.head.LoadAcquire())
}

// TestFAARingPublishWaitsForPreviousLap blocks a lap-ahead claim until the
// executor frees the slot.
func TestFAARingPublishWaitsForPreviousLap(t *testing.T) {
	if RaceEnabled {
		t.Skip("skip: record ring publishes through slot sequence ordering")
	}
	r := newFAARing(2)
	for i := range 4 {
		r.publish(r.tail.AddAcqRel(1)-1, &Record{Payload: i})
	}

	done := make(chan struct{})
	go func() {
		r.publish(r.tail.AddAcqRel(1)-1, &Record{Payload: 4})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("publish overwrote an unconsumed slot")
	case <-time.After(20 * time.Millisecond):
	}

	rec, err := r.pop()
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Payload)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish still waiting after the slot was freed")
	}
	for want := 1; want <= 4; want++ {
		rec, err := r.pop()
		require.NoError(t, err)
		assert.Equal(t, want, rec.Payload)
	}
}

// =============================================================================
// Reference count saturation
// =============================================================================

func TestRetainSaturated(t *testing.T) {
	ctx, devs := NewNamedContext(0, "D")
	q, err := Create(ctx, devs[0], 0)
	require.NoError(t, err)

	q.refs.StoreRelease(math.MaxUint32)
	assert.ErrorIs(t, q.Retain(), ErrOutOfHostMemory)
	assert.Equal(t, uint32(math.MaxUint32), q.ReferenceCount())

	v, err := q.Info(InfoReferenceCount)
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), v.Uint32())

	require.NoError(t, q.Release())
	require.NoError(t, q.Retain())
	assert.Equal(t, uint32(math.MaxUint32), q.ReferenceCount())

	q.refs.StoreRelease(1)
	require.NoError(t, q.Release())
	<-q.Done()
}
