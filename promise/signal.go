// Package promise implements typed, queue-scheduled promises: a one-shot
// Signal latch, unique and shared settled-value State forms, a Deferrer
// write side, and Promise/SharedPromise read sides, plus free generic
// functions for the operators that change the promised type.
//
// Grounded on the teacher's lifecycleCoordinator (lifecycle.go): Signal.Settle
// mirrors its "mark done under lock, then run every registered step outside
// the lock, in order" discipline, generalized from a fixed nine-step sequence
// to an arbitrary list of queued continuations.
package promise

import (
	"sync"

	"github.com/ygrebnov/qcore/queue"
)

type continuation struct {
	task  func()
	queue *queue.Queue
}

// Signal is a one-shot latch. While pending, Push accumulates continuations;
// Settle marks the latch settled and posts every accumulated continuation,
// in the order they were pushed, to its own queue — each continuation posted
// outside Settle's lock, so a continuation's queue.Push can never deadlock
// against Signal's own mutex. Any Push arriving after Settle posts
// immediately.
type Signal struct {
	mu      sync.Mutex
	settled bool
	pending []continuation
}

// Push schedules t on q once the Signal settles (immediately, if it already
// has).
func (s *Signal) Push(t func(), q *queue.Queue) {
	s.mu.Lock()
	if s.settled {
		s.mu.Unlock()
		q.Push(t)
		return
	}
	s.pending = append(s.pending, continuation{task: t, queue: q})
	s.mu.Unlock()
}

// Settle marks the Signal settled and posts every pending continuation.
// Settle is idempotent: only the first call has any effect.
func (s *Signal) Settle() {
	s.mu.Lock()
	if s.settled {
		s.mu.Unlock()
		return
	}
	s.settled = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, c := range pending {
		c.queue.Push(c.task)
	}
}

// Settled reports whether Settle has already run.
func (s *Signal) Settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled
}
