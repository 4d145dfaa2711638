package emulator

import (
	"container/heap"
	"time"
)

type timer struct {
	due time.Duration
	seq uint64
	fn  func()
}

// timerQueue orders timers by due time, then by scheduling order.
type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) { *q = append(*q, x.(*timer)) }

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Now returns the virtual time elapsed since the host was created.
func (h *Host) Now() time.Duration {
	return h.clock
}

// RunOnMainThread queues fn to run once delay has elapsed on the virtual clock.
func (h *Host) RunOnMainThread(delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}
	h.seq++
	heap.Push(&h.timers, &timer{due: h.clock + delay, seq: h.seq, fn: fn})
	h.metrics.PendingTimers.Inc()
}

// PendingTimers returns the number of queued timers.
func (h *Host) PendingTimers() int {
	return h.timers.Len()
}

// Advance moves the virtual clock forward by d, running due timers in order.
// Timers queued by a running timer fire in the same call if they fall due
// within the window. It returns the number of timers run.
func (h *Host) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	target := h.clock + d
	fired := 0
	for h.timers.Len() > 0 && h.timers[0].due <= target {
		t := heap.Pop(&h.timers).(*timer)
		h.metrics.PendingTimers.Dec()
		h.clock = t.due
		t.fn()
		fired++
		h.metrics.TimersFired.Inc()
	}
	h.clock = target
	return fired
}
