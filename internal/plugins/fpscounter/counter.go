package fpscounter

import "time"

// Counter measures frames per second over windows of at least one second.
type Counter struct {
	frames uint32
	last   time.Time
	now    func() time.Time
}

// NewCounter starts a window at now().
func NewCounter(now func() time.Time) *Counter {
	return &Counter{last: now(), now: now}
}

// Update counts one frame. Once a second or more has elapsed it returns the
// rate over the window and starts a new one.
func (c *Counter) Update() (float64, bool) {
	c.frames++
	elapsed := c.now().Sub(c.last)
	if elapsed < time.Second {
		return 0, false
	}
	fps := float64(c.frames) / elapsed.Seconds()
	c.frames = 0
	c.last = c.now()
	return fps, true
}
