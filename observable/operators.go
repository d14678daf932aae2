package observable

import (
	"context"
	"errors"

	"github.com/ygrebnov/qcore"
	"github.com/ygrebnov/qcore/promise"
	"github.com/ygrebnov/qcore/qerr"
	"github.com/ygrebnov/qcore/queue"
	"github.com/ygrebnov/qcore/rxchannel"
)

// readLoop pulls one value at a time from in, invoking onValue for each;
// onValue must call its cont callback once it is ready for the next value
// (after successfully forwarding this one downstream, for instance). Once in
// closes, onClose runs exactly once with nil (closed-ok) or the close error.
// Every operator in this file is a thin onValue/onClose pair wired to this
// one pull loop — the same "one task at a time, self-re-posting" idiom every
// creator in this package already uses.
func readLoop[T any](q *queue.Queue, in *rxchannel.Channel[T], onValue func(v T, cont func()), onClose func(err error)) {
	var step func()
	step = func() {
		in.Read(context.Background()).Finally(func(e qcore.Expected[T]) {
			if e.HasError() {
				err := e.Err()
				if errors.Is(err, rxchannel.ErrClosed) {
					onClose(nil)
					return
				}
				onClose(err)
				return
			}
			v, _ := e.Value()
			onValue(v, step)
		})
	}
	q.Push(step)
}

// writeThenContinue writes v to out, retrying via out's resume notification
// if it is currently full, then calls cont.
func writeThenContinue[R any](q *queue.Queue, out *rxchannel.Channel[R], v R, cont func()) {
	if out.Write(v) {
		q.Push(cont)
		return
	}
	out.SetResumeNotification(func() {
		q.Push(func() { writeThenContinue(q, out, v, cont) })
	})
}

func forwardClose[R any](out *rxchannel.Channel[R], err error) {
	if err != nil {
		out.CloseErr(err)
		return
	}
	out.Close()
}

// Map applies fn to each value, synchronously, preserving order; an error
// from fn closes the downstream with that error without touching the
// upstream.
func Map[T, R any](o *Observable[T], fn func(T) (R, error)) *Observable[R] {
	out := rxchannel.New[R](o.q, defaultCapacity)
	readLoop(o.q, o.ch, func(v T, cont func()) {
		r, err := fn(v)
		if err != nil {
			out.CloseErr(err)
			return
		}
		writeThenContinue(o.q, out, r, cont)
	}, func(err error) { forwardClose(out, err) })
	return &Observable[R]{ch: out, q: o.q}
}

// MapPromise is Map's promise-returning overload: fn's promise is awaited
// before the transformed value is emitted.
func MapPromise[T, R any](o *Observable[T], fn func(T) *promise.Promise[R]) *Observable[R] {
	out := rxchannel.New[R](o.q, defaultCapacity)
	readLoop(o.q, o.ch, func(v T, cont func()) {
		fn(v).Finally(func(e qcore.Expected[R]) {
			if e.HasError() {
				out.CloseErr(e.Err())
				return
			}
			r, _ := e.Value()
			writeThenContinue(o.q, out, r, cont)
		})
	}, func(err error) { forwardClose(out, err) })
	return &Observable[R]{ch: out, q: o.q}
}

// Buffer groups consecutive values into slices of count, emitting a slice
// once it fills. The final, possibly-partial, group is emitted on a
// close-ok; it is discarded on a close-err (only the error is forwarded).
// count == 0 panics with a qerr.Programmer error, matching buffer(0) being a
// programmer error.
func Buffer[T any](o *Observable[T], count int) *Observable[[]T] {
	if count == 0 {
		panic(qerr.New(qerr.Programmer, "observable.Buffer: count must be greater than 0"))
	}
	out := rxchannel.New[[]T](o.q, defaultCapacity)
	var acc []T
	readLoop(o.q, o.ch, func(v T, cont func()) {
		acc = append(acc, v)
		if len(acc) < count {
			cont()
			return
		}
		batch := acc
		acc = nil
		writeThenContinue(o.q, out, batch, cont)
	}, func(err error) {
		if err != nil {
			acc = nil
			out.CloseErr(err)
			return
		}
		if len(acc) > 0 {
			batch := acc
			acc = nil
			writeThenContinue(o.q, out, batch, func() { out.Close() })
			return
		}
		out.Close()
	})
	return &Observable[[]T]{ch: out, q: o.q}
}

// GroupedObservable pairs a group's key with the inner observable carrying
// every value that hashed (or compared, for non-comparable-by-hash keys —
// Go's comparable constraint gives this for free) to that key.
type GroupedObservable[K comparable, T any] struct {
	Key   K
	Inner *Observable[T]
}

// GroupBy routes each value to the inner observable matching key(v),
// opening a new inner observable (and emitting the (key, inner) pair
// downstream) on a key's first appearance. On upstream close, every inner
// observable closes the same way (ok or with the same error).
func GroupBy[T any, K comparable](o *Observable[T], key func(T) (K, error)) *Observable[GroupedObservable[K, T]] {
	out := rxchannel.New[GroupedObservable[K, T]](o.q, defaultCapacity)
	groups := make(map[K]*rxchannel.Channel[T])

	readLoop(o.q, o.ch, func(v T, cont func()) {
		k, err := key(v)
		if err != nil {
			out.CloseErr(err)
			closeGroups(groups, err)
			return
		}

		inner, exists := groups[k]
		if exists {
			writeThenContinue(o.q, inner, v, cont)
			return
		}

		inner = rxchannel.New[T](o.q, defaultCapacity)
		groups[k] = inner
		grouped := GroupedObservable[K, T]{Key: k, Inner: &Observable[T]{ch: inner, q: o.q}}
		writeThenContinue(o.q, out, grouped, func() {
			writeThenContinue(o.q, inner, v, cont)
		})
	}, func(err error) {
		if err != nil {
			out.CloseErr(err)
			closeGroups(groups, err)
			return
		}
		out.Close()
		closeGroups(groups, nil)
	})
	return &Observable[GroupedObservable[K, T]]{ch: out, q: o.q}
}

func closeGroups[K comparable, T any](groups map[K]*rxchannel.Channel[T], err error) {
	for _, inner := range groups {
		if err != nil {
			inner.CloseErr(err)
			continue
		}
		inner.Close()
	}
}

// Repeat consumes the upstream once, storing every value, then replays the
// stored values into the downstream limit-1 additional times (forever, if
// limit == 0). A downstream close halts replay. Any upstream error aborts
// replay and is forwarded as-is.
func Repeat[T any](o *Observable[T], limit int, opts ...RepeatOption) *Observable[T] {
	ro := repeatOptions{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&ro)
	}
	out := rxchannel.New[T](o.q, ro.capacity)

	var stored []T
	readLoop(o.q, o.ch, func(v T, cont func()) {
		stored = append(stored, v)
		writeThenContinue(o.q, out, v, cont)
	}, func(err error) {
		if err != nil {
			out.CloseErr(err)
			return
		}
		replay(o.q, out, stored, 1, limit)
	})
	return &Observable[T]{ch: out, q: o.q}
}

func replay[T any](q *queue.Queue, out *rxchannel.Channel[T], stored []T, round, limit int) {
	if out.IsClosed() {
		return
	}
	if limit != 0 && round >= limit {
		out.Close()
		return
	}

	i := 0
	var step func()
	step = func() {
		if out.IsClosed() {
			return
		}
		for i < len(stored) {
			if !out.Write(stored[i]) {
				out.SetResumeNotification(func() { q.Push(step) })
				return
			}
			i++
		}
		replay(q, out, stored, round+1, limit)
	}
	q.Push(step)
}

// Consume is the terminal sink: it reads one value at a time, runs fn, and
// only reads the next once fn returns. On upstream close-ok the returned
// promise resolves; on close-err it rejects with the same error. If fn
// itself errors, the upstream channel is closed with that error and the
// returned promise rejects with it.
func Consume[T any](o *Observable[T], fn func(T) error) *promise.Promise[struct{}] {
	d := promise.NewDeferrer[struct{}](o.q)
	readLoop(o.q, o.ch, func(v T, cont func()) {
		if err := fn(v); err != nil {
			o.ch.CloseErr(err)
			d.Reject(err)
			return
		}
		cont()
	}, func(err error) {
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(struct{}{})
	})
	return d.Promise()
}

// ConsumeAsync is Consume's promise-returning overload: fn's promise is
// awaited before the next value is read.
func ConsumeAsync[T any](o *Observable[T], fn func(T) *promise.Promise[struct{}]) *promise.Promise[struct{}] {
	d := promise.NewDeferrer[struct{}](o.q)
	readLoop(o.q, o.ch, func(v T, cont func()) {
		fn(v).Finally(func(e qcore.Expected[struct{}]) {
			if e.HasError() {
				o.ch.CloseErr(e.Err())
				d.Reject(e.Err())
				return
			}
			cont()
		})
	}, func(err error) {
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(struct{}{})
	})
	return d.Promise()
}
