package emulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHost_Advance(t *testing.T) {
	h := newTestHost(t, Options{})
	var order []string

	h.RunOnMainThread(2*time.Second, func() { order = append(order, "b") })
	h.RunOnMainThread(time.Second, func() { order = append(order, "a") })
	h.RunOnMainThread(time.Second, func() { order = append(order, "a2") })
	h.RunOnMainThread(10*time.Second, func() { order = append(order, "late") })
	assert.Equal(t, 4, h.PendingTimers())

	fired := h.Advance(2 * time.Second)
	assert.Equal(t, 3, fired)
	assert.Equal(t, []string{"a", "a2", "b"}, order)
	assert.Equal(t, 2*time.Second, h.Now())
	assert.Equal(t, 1, h.PendingTimers())
}

func TestHost_AdvanceChained(t *testing.T) {
	h := newTestHost(t, Options{})
	var at []time.Duration

	h.RunOnMainThread(100*time.Millisecond, func() {
		at = append(at, h.Now())
		h.RunOnMainThread(100*time.Millisecond, func() { at = append(at, h.Now()) })
	})

	assert.Equal(t, 2, h.Advance(time.Second))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, at)
	assert.Equal(t, time.Second, h.Now())
}

func TestHost_NegativeDelay(t *testing.T) {
	h := newTestHost(t, Options{})
	fired := false

	h.RunOnMainThread(-time.Second, func() { fired = true })
	assert.Equal(t, 1, h.Advance(0))
	assert.True(t, fired)
}
