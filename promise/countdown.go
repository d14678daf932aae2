package promise

import "sync/atomic"

// countdown is a thread-safe latch counting down from n; done reports true
// exactly once, on the call that observes the count reach zero.
type countdown struct {
	remaining atomic.Int64
}

func newCountdown(n int) *countdown {
	c := &countdown{}
	c.remaining.Store(int64(n))
	return c
}

func (c *countdown) done() bool {
	return c.remaining.Add(-1) == 0
}
