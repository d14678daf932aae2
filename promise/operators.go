package promise

import (
	"errors"

	"github.com/ygrebnov/qcore"
	"github.com/ygrebnov/qcore/qerr"
	"github.com/ygrebnov/qcore/queue"
)

// Then attaches fn as p's success continuation, consuming p: fn runs only on
// resolution, its result (or error) settling the returned Promise[R]; a
// rejection of p passes through unchanged. Go methods cannot introduce a new
// type parameter on an existing generic receiver, so every operator that
// changes the promised type — Then included — is a free function, exactly
// as the teacher exposes Map/ForEach as free generic functions rather than
// methods on Workers[R].
func Then[T, R any](p *Promise[T], fn func(T) (R, error), q ...*queue.Queue) *Promise[R] {
	dq := pickQueue(p.queue, q)
	next := NewDeferrer[R](dq)
	p.push(dq, func(e qcore.Expected[T]) {
		if e.HasError() {
			next.Reject(e.Err())
			return
		}
		v, _ := e.Value()
		next.ResolveByCalling(func() (R, error) { return fn(v) })
	})
	return next.Promise()
}

// ThenChain attaches fn as p's success continuation, consuming p: fn's
// returned Promise[R] is flattened into the outcome of the returned
// Promise[R] (the "chained then" overload: fn itself returns a promise
// rather than a plain value).
func ThenChain[T, R any](p *Promise[T], fn func(T) *Promise[R], q ...*queue.Queue) *Promise[R] {
	dq := pickQueue(p.queue, q)
	next := NewDeferrer[R](dq)
	p.push(dq, func(e qcore.Expected[T]) {
		if e.HasError() {
			next.Reject(e.Err())
			return
		}
		v, _ := e.Value()
		inner, err := callChain(fn, v)
		if err != nil {
			next.Reject(err)
			return
		}
		inner.push(dq, func(ie qcore.Expected[R]) {
			if ie.HasError() {
				next.Reject(ie.Err())
				return
			}
			iv, _ := ie.Value()
			next.Resolve(iv)
		})
	})
	return next.Promise()
}

// callChain invokes fn, converting a panic into an error via
// qcore.PanicToError instead of letting it escape: a panicking fn must still
// reject the output promise rather than stall it, the same boundary
// ResolveByCalling and runSafely enforce for the other continuation shapes.
func callChain[T, R any](fn func(T) *Promise[R], v T) (inner *Promise[R], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = qcore.PanicToError(r)
		}
	}()
	return fn(v), nil
}

// Fail attaches fn as p's rejection handler, consuming p: fn runs only on
// rejection and may recover the chain by returning a value, or propagate a
// (possibly different) error. A resolution of p passes through unchanged.
func Fail[T any](p *Promise[T], fn func(error) (T, error)) *Promise[T] {
	next := NewDeferrer[T](p.queue)
	p.push(nil, func(e qcore.Expected[T]) {
		if e.HasValue() {
			v, _ := e.Value()
			next.Resolve(v)
			return
		}
		next.ResolveByCalling(func() (T, error) { return fn(e.Err()) })
	})
	return next.Promise()
}

// FailAs attaches fn as p's rejection handler for rejections whose error
// matches target type E by errors.As, consuming p. A rejection whose error
// does not match E passes through unchanged, exactly like an untyped catch
// clause that rethrows.
func FailAs[T any, E error](p *Promise[T], fn func(E) (T, error)) *Promise[T] {
	next := NewDeferrer[T](p.queue)
	p.push(nil, func(e qcore.Expected[T]) {
		if e.HasValue() {
			v, _ := e.Value()
			next.Resolve(v)
			return
		}
		var target E
		if errors.As(e.Err(), &target) {
			next.ResolveByCalling(func() (T, error) { return fn(target) })
			return
		}
		next.Reject(e.Err())
	})
	return next.Promise()
}

// Forward attaches to p, consuming it, and settles the returned Promise[U]
// with the fixed value U on p's resolution, or p's error on rejection —
// discarding T's resolved value entirely.
func Forward[T, U any](p *Promise[T], value U) *Promise[U] {
	next := NewDeferrer[U](p.queue)
	p.push(nil, func(e qcore.Expected[T]) {
		if e.HasError() {
			next.Reject(e.Err())
			return
		}
		next.Resolve(value)
	})
	return next.Promise()
}

// With builds an already-resolved Promise[T] holding v, posted to q.
func With[T any](q *queue.Queue, v T) *Promise[T] {
	d := NewDeferrer[T](q)
	d.Resolve(v)
	return d.Promise()
}

// Reject builds an already-rejected Promise[T] holding err, posted to q.
func Reject[T any](q *queue.Queue, err error) *Promise[T] {
	d := NewDeferrer[T](q)
	d.Reject(err)
	return d.Promise()
}

// Make builds a Promise[T] whose settlement is controlled by fn, which
// receives resolve/reject callbacks — the constructor-style escape hatch for
// wrapping callback-based APIs, grounded on the teacher's ResolveByCalling
// idiom generalized to arbitrary async completion sources instead of a
// synchronous func() (T, error).
func Make[T any](q *queue.Queue, fn func(resolve func(T), reject func(error))) *Promise[T] {
	d := NewDeferrer[T](q)
	fn(d.Resolve, d.Reject)
	return d.Promise()
}

// Promisify adapts a synchronous, possibly-erroring function into one that
// returns a Promise[T] settled by running fn on q.
func Promisify[T any](q *queue.Queue, fn func() (T, error)) func() *Promise[T] {
	return func() *Promise[T] {
		d := NewDeferrer[T](q)
		q.Push(func() { d.ResolveByCalling(fn) })
		return d.Promise()
	}
}

// All waits for every ps to settle, consuming each, and resolves with their
// values in input order. On any rejection, the returned Promise rejects with
// a qerr.Combined error attached with the full []qcore.Expected[T] slice —
// every input's outcome, not just the first failure — mirroring AllAny.
func All[T any](q *queue.Queue, ps ...*Promise[T]) *Promise[[]T] {
	next := NewDeferrer[[]T](q)
	if len(ps) == 0 {
		next.Resolve(nil)
		return next.Promise()
	}

	outcomes := make([]qcore.Expected[T], len(ps))
	results := make([]T, len(ps))
	remaining := newCountdown(len(ps))
	for i, p := range ps {
		i := i
		p.push(q, func(e qcore.Expected[T]) {
			outcomes[i] = e
			if e.HasValue() {
				v, _ := e.Value()
				results[i] = v
			}
			if remaining.done() {
				if anyFailed(outcomes) {
					next.Reject(qerr.New(qerr.Combined, "promise.All: one or more promises rejected").
						WithAttachment(outcomes))
					return
				}
				next.Resolve(results)
			}
		})
	}
	return next.Promise()
}

// AnyPromise erases a *Promise[T] so heterogeneous result types can be
// combined by AllAny. Reflect().Strip-style type erasure is avoided in
// favor of a small interface implemented by *Promise[T] via AsAny.
type AnyPromise interface {
	pushAny(q *queue.Queue, onSettle func(qcore.Expected[any]))
}

type anyAdapter[T any] struct{ p *Promise[T] }

func (a anyAdapter[T]) pushAny(q *queue.Queue, onSettle func(qcore.Expected[any])) {
	a.p.push(q, func(e qcore.Expected[T]) {
		if e.HasError() {
			onSettle(qcore.Failed[any](e.Err()))
			return
		}
		v, _ := e.Value()
		onSettle(qcore.Val[any](v))
	})
}

// AsAny erases p's type so it can be passed to AllAny alongside promises of
// differing result types. Consumes p only once the returned AnyPromise is
// itself attached (by AllAny).
func AsAny[T any](p *Promise[T]) AnyPromise { return anyAdapter[T]{p: p} }

// AllAny is the heterogeneous counterpart to All: it accepts promises whose
// result types differ (each wrapped via AsAny) and resolves with their
// Expected[any] outcomes in input order. On any rejection, the returned
// Promise rejects with a qerr.Combined error attached with the full
// []qcore.Expected[any] slice — every input's outcome, not just the first
// failure — satisfying the "collect every outcome, not just the first
// failure" scenario.
func AllAny(q *queue.Queue, ps ...AnyPromise) *Promise[[]any] {
	next := NewDeferrer[[]any](q)
	if len(ps) == 0 {
		next.Resolve(nil)
		return next.Promise()
	}

	outcomes := make([]qcore.Expected[any], len(ps))
	results := make([]any, len(ps))
	remaining := newCountdown(len(ps))
	for i, p := range ps {
		i := i
		p.pushAny(q, func(e qcore.Expected[any]) {
			outcomes[i] = e
			if e.HasValue() {
				v, _ := e.Value()
				results[i] = v
			}
			if remaining.done() {
				if anyFailed(outcomes) {
					next.Reject(qerr.New(qerr.Combined, "promise.AllAny: one or more promises rejected").
						WithAttachment(outcomes))
					return
				}
				next.Resolve(results)
			}
		})
	}
	return next.Promise()
}

func anyFailed[T any](outcomes []qcore.Expected[T]) bool {
	for _, o := range outcomes {
		if o.HasError() {
			return true
		}
	}
	return false
}

func pickQueue(def *queue.Queue, q []*queue.Queue) *queue.Queue {
	if len(q) > 0 && q[0] != nil {
		return q[0]
	}
	return def
}
