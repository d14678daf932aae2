// Package rxchannel implements a bounded, back-pressured, single-writer/
// single-reader FIFO of values that also carries a terminal close (ok or
// error). It is the channel the observable package's reactive operators
// read from and write to.
//
// Grounded on the teacher's errorForwarder (error_forwarder.go) for its
// "track whether we already notified" single-transition bookkeeping, applied
// here to the channel's full→non-full resume notification instead of an
// error-forwarding flag.
package rxchannel

import (
	"context"
	"sync"

	"github.com/ygrebnov/qcore/promise"
	"github.com/ygrebnov/qcore/qerr"
	"github.com/ygrebnov/qcore/queue"
)

type state int

const (
	open state = iota
	closedOK
	closedErr
)

// ErrClosed is the sentinel rejection reason for a Read against a
// closed-ok channel (as opposed to CloseErr's own carried error): a single
// shared instance so callers can distinguish "normal completion" from "the
// upstream failed" via errors.Is(err, rxchannel.ErrClosed).
var ErrClosed = qerr.New(qerr.Channel, "read from a closed channel")

// Channel is a bounded FIFO of T plus a terminal close (ok or error).
// Writes are rejected once the buffer reaches capacity: callers honor
// ShouldSend rather than relying on any silent over-capacity slack, per the
// spec's own resolved ambiguity on this point.
type Channel[T any] struct {
	mu       sync.Mutex
	q        *queue.Queue
	capacity int

	st       state
	closeErr error

	buf          []T
	pendingReads []*promise.Deferrer[T]

	wasFull  bool
	onResume func()
}

// New builds an open Channel of the given capacity (>= 0), whose reads
// resolve promises posted to q.
func New[T any](q *queue.Queue, capacity int) *Channel[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Channel[T]{q: q, capacity: capacity}
}

// Queue returns the queue reads resolve their promises on.
func (c *Channel[T]) Queue() *queue.Queue { return c.q }

// IsClosed reports whether the channel has transitioned to closed-ok or
// closed-err.
func (c *Channel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st != open
}

// ShouldSend reports whether a Write is currently expected to succeed: the
// channel is open and either a reader is already waiting or the buffer has
// room.
func (c *Channel[T]) ShouldSend() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st == open && (len(c.pendingReads) > 0 || len(c.buf) < c.capacity)
}

// SetResumeNotification installs fn to fire exactly once per full→non-full
// transition: a Read that frees the last slot of a full buffer.
func (c *Channel[T]) SetResumeNotification(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResume = fn
}

// Clear drops any buffered, not-yet-read values, leaving open/closed state
// and any already-pending reads untouched.
func (c *Channel[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = nil
}

// Write enqueues v, delivering it directly to the oldest waiting reader if
// one exists. Returns false without enqueuing if the channel is closed or
// the buffer is already at capacity — callers are expected to check
// ShouldSend rather than rely on any over-capacity slack.
func (c *Channel[T]) Write(v T) bool {
	c.mu.Lock()
	if c.st != open {
		c.mu.Unlock()
		return false
	}
	if len(c.pendingReads) > 0 {
		d := c.pendingReads[0]
		c.pendingReads = c.pendingReads[1:]
		c.mu.Unlock()
		d.Resolve(v)
		return true
	}
	if len(c.buf) >= c.capacity {
		c.mu.Unlock()
		return false
	}
	c.buf = append(c.buf, v)
	if c.capacity > 0 && len(c.buf) >= c.capacity {
		c.wasFull = true
	}
	c.mu.Unlock()
	return true
}

// Read returns a Promise[T] that resolves with the next value, or rejects
// once the channel closes and no buffered value remains. ctx is consulted
// once, at call time — if already done, Read rejects immediately — the same
// non-blocking-context-check discipline as scheduler.Scheduler.Next; it is
// not monitored for later cancellation of an already-pending read.
func (c *Channel[T]) Read(ctx context.Context) *promise.Promise[T] {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return promise.Reject[T](c.q, ctx.Err())
		default:
		}
	}

	c.mu.Lock()
	if len(c.buf) > 0 {
		v := c.buf[0]
		c.buf = c.buf[1:]
		freed := c.wasFull && len(c.buf) < c.capacity
		if freed {
			c.wasFull = false
		}
		notify := c.onResume
		c.mu.Unlock()
		if freed && notify != nil {
			notify()
		}
		return promise.With(c.q, v)
	}

	switch c.st {
	case closedOK:
		c.mu.Unlock()
		return promise.Reject[T](c.q, ErrClosed)
	case closedErr:
		err := c.closeErr
		c.mu.Unlock()
		return promise.Reject[T](c.q, err)
	}

	d := promise.NewDeferrer[T](c.q)
	c.pendingReads = append(c.pendingReads, d)
	c.mu.Unlock()
	return d.Promise()
}

// Close transitions the channel to closed-ok. Any reader already waiting
// (because the buffer was empty when it called Read) rejects with a
// closed-channel error; buffered values already enqueued remain readable.
func (c *Channel[T]) Close() { c.close(nil) }

// CloseErr transitions the channel to closed-err: any reader already
// waiting, and every future Read, rejects with err.
func (c *Channel[T]) CloseErr(err error) {
	if err == nil {
		panic("rxchannel: CloseErr called with a nil error")
	}
	c.close(err)
}

func (c *Channel[T]) close(err error) {
	c.mu.Lock()
	if c.st != open {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.st = closedErr
		c.closeErr = err
	} else {
		c.st = closedOK
	}
	pending := c.pendingReads
	c.pendingReads = nil
	c.mu.Unlock()

	for _, d := range pending {
		if err != nil {
			d.Reject(err)
			continue
		}
		d.Reject(ErrClosed)
	}
}
