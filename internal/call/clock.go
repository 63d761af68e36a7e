package call

import "sync/atomic"

// Clock is a monotonic logical clock stamping completed calls.
//
// All ordering of recorded calls uses seq numbers from this clock, never
// wall-clock timestamps. Reentrant interceptions (a rule invoking another
// substitute mid-dispatch) interleave in completion order, which is exactly
// the order seq numbers are drawn in.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although a single manager draws from it synchronously.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at a specific sequence number.
// Used by tooling that resumes from a persisted call log.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
