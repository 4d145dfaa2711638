package fpscounter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestCounter(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	counter := NewCounter(clock.now)

	for i := 0; i < 59; i++ {
		clock.t = clock.t.Add(10 * time.Millisecond)
		_, ok := counter.Update()
		assert.False(t, ok, "frame %d", i)
	}

	clock.t = time.Unix(1002, 0)
	fps, ok := counter.Update()
	assert.True(t, ok)
	assert.InDelta(t, 30.0, fps, 1e-9)

	// The window restarts after a report.
	clock.t = clock.t.Add(500 * time.Millisecond)
	_, ok = counter.Update()
	assert.False(t, ok)
}
