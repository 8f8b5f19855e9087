package reactor

import "code.hybscloud.com/atomix"

// Clock hands out the seq numbers stamped on trace events.
//
// Seq numbers strictly increase, so a journaled run is ordered without wall
// time and a replay reproduces the numbering. Safe for concurrent use; the
// reactor itself only advances it from the consume loop.
type Clock struct {
	seq atomix.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first Next is start+1, continuing the
// numbering of earlier runs in the same journal.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current reports the last seq handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
