package engine

import "sync/atomic"

// Clock is a monotonic logical clock for ordering deliveries.
//
// Every delivered payload is stamped with a strictly increasing seq number
// from this clock, so a trace of deliveries has a total order that does
// not depend on wall-clock time.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// FrameSource reports the frame the host is currently producing.
type FrameSource interface {
	Current() uint32
}

// FrameClock counts rendered frames. Frames are 1-based: the first frame
// the host produces is frame 1.
//
// Thread-safety: FrameClock is safe for concurrent use. The render thread
// advances it; the sync timer reads it.
type FrameClock struct {
	frame atomic.Uint32
}

// NewFrameClock creates a clock at frame 1.
func NewFrameClock() *FrameClock {
	c := &FrameClock{}
	c.frame.Store(1)
	return c
}

// Current returns the frame being produced.
func (c *FrameClock) Current() uint32 {
	return c.frame.Load()
}

// Advance moves to the next frame and returns it.
func (c *FrameClock) Advance() uint32 {
	return c.frame.Add(1)
}
