package promise

import (
	"time"

	"github.com/ygrebnov/qcore"
	"github.com/ygrebnov/qcore/queue"
)

// Promise is the read side of a settled-once value: a single-consumption
// handle that may be attached to exactly one continuation chain. Use Share
// to obtain a SharedPromise when more than one consumer needs to observe the
// same settlement.
type Promise[T any] struct {
	unique *UniqueState[T]
	queue  *queue.Queue
}

// push attaches onSettle to p's chain, posted to q (p's default queue if q
// is nil), and consumes p.
func (p *Promise[T]) push(q *queue.Queue, onSettle func(qcore.Expected[T])) {
	p.unique.markConsumed()
	if q == nil {
		q = p.queue
	}
	p.unique.state.signal.Push(func() { onSettle(p.unique.state.get()) }, q)
}

// Tap runs fn with the resolved value, without altering the chain's
// outcome; forwards the original Expected[T] (value or error) unchanged to
// the returned Promise.
func (p *Promise[T]) Tap(fn func(T)) *Promise[T] {
	next := NewDeferrer[T](p.queue)
	p.push(nil, func(e qcore.Expected[T]) {
		if e.HasValue() {
			v, _ := e.Value()
			if err := runSafely(func() { fn(v) }); err != nil {
				next.Reject(err)
				return
			}
			next.Resolve(v)
			return
		}
		next.Reject(e.Err())
	})
	return next.Promise()
}

// TapError runs fn with the rejection error, without altering the chain's
// outcome.
func (p *Promise[T]) TapError(fn func(error)) *Promise[T] {
	next := NewDeferrer[T](p.queue)
	p.push(nil, func(e qcore.Expected[T]) {
		if e.HasError() {
			origErr := e.Err()
			if err := runSafely(func() { fn(origErr) }); err != nil {
				next.Reject(err)
				return
			}
			next.Reject(origErr)
			return
		}
		v, _ := e.Value()
		next.Resolve(v)
	})
	return next.Promise()
}

// Finally runs fn with the final Expected[T], regardless of outcome, without
// altering the chain's outcome.
func (p *Promise[T]) Finally(fn func(qcore.Expected[T])) *Promise[T] {
	next := NewDeferrer[T](p.queue)
	p.push(nil, func(e qcore.Expected[T]) {
		if err := runSafely(func() { fn(e) }); err != nil {
			next.Reject(err)
			return
		}
		if e.HasValue() {
			v, _ := e.Value()
			next.Resolve(v)
			return
		}
		next.Reject(e.Err())
	})
	return next.Promise()
}

// Delay returns a Promise that settles with p's outcome no sooner than d
// after p itself settles.
func (p *Promise[T]) Delay(d time.Duration) *Promise[T] {
	next := NewDeferrer[T](p.queue)
	p.push(nil, func(e qcore.Expected[T]) {
		time.AfterFunc(d, func() {
			if e.HasValue() {
				v, _ := e.Value()
				next.Resolve(v)
				return
			}
			next.Reject(e.Err())
		})
	})
	return next.Promise()
}

// Reflect turns any outcome, value or error, into a resolved
// Promise[Expected[T]] that never itself rejects.
func (p *Promise[T]) Reflect() *Promise[qcore.Expected[T]] {
	next := NewDeferrer[qcore.Expected[T]](p.queue)
	p.push(nil, func(e qcore.Expected[T]) { next.Resolve(e) })
	return next.Promise()
}

// Strip discards the resolved value, keeping only the distinction between
// success and failure.
func (p *Promise[T]) Strip() *Promise[struct{}] {
	next := NewDeferrer[struct{}](p.queue)
	p.push(nil, func(e qcore.Expected[T]) {
		if e.HasValue() {
			next.Resolve(struct{}{})
			return
		}
		next.Reject(e.Err())
	})
	return next.Promise()
}

// Share converts p into a SharedPromise, consuming p: any number of
// independent continuation chains may attach to the returned handle.
func (p *Promise[T]) Share() *SharedPromise[T] {
	return &SharedPromise[T]{shared: Upgrade(p.unique), queue: p.queue}
}

// SharedPromise is the cloneable read side of a settled-once value: unlike
// Promise, any number of independent continuation chains may attach to it.
type SharedPromise[T any] struct {
	shared *SharedState[T]
	queue  *queue.Queue
}

// Clone returns another independent handle to the same underlying
// settlement.
func (sp *SharedPromise[T]) Clone() *SharedPromise[T] {
	return &SharedPromise[T]{shared: sp.shared, queue: sp.queue}
}

func (sp *SharedPromise[T]) push(q *queue.Queue, onSettle func(qcore.Expected[T])) {
	if q == nil {
		q = sp.queue
	}
	sp.shared.state.signal.Push(func() { onSettle(sp.shared.state.get()) }, q)
}

// Tap runs fn with the resolved value, without altering the chain's
// outcome.
func (sp *SharedPromise[T]) Tap(fn func(T)) *SharedPromise[T] {
	next := NewDeferrer[T](sp.queue)
	sp.push(nil, func(e qcore.Expected[T]) {
		if e.HasValue() {
			v, _ := e.Value()
			if err := runSafely(func() { fn(v) }); err != nil {
				next.Reject(err)
				return
			}
			next.Resolve(v)
			return
		}
		next.Reject(e.Err())
	})
	return next.Promise().Share()
}

// TapError runs fn with the rejection error, without altering the chain's
// outcome.
func (sp *SharedPromise[T]) TapError(fn func(error)) *SharedPromise[T] {
	next := NewDeferrer[T](sp.queue)
	sp.push(nil, func(e qcore.Expected[T]) {
		if e.HasError() {
			origErr := e.Err()
			if err := runSafely(func() { fn(origErr) }); err != nil {
				next.Reject(err)
				return
			}
			next.Reject(origErr)
			return
		}
		v, _ := e.Value()
		next.Resolve(v)
	})
	return next.Promise().Share()
}

// Finally runs fn with the final Expected[T], regardless of outcome.
func (sp *SharedPromise[T]) Finally(fn func(qcore.Expected[T])) *SharedPromise[T] {
	next := NewDeferrer[T](sp.queue)
	sp.push(nil, func(e qcore.Expected[T]) {
		if err := runSafely(func() { fn(e) }); err != nil {
			next.Reject(err)
			return
		}
		if e.HasValue() {
			v, _ := e.Value()
			next.Resolve(v)
			return
		}
		next.Reject(e.Err())
	})
	return next.Promise().Share()
}
