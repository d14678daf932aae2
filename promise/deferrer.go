package promise

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ygrebnov/qcore"
	"github.com/ygrebnov/qcore/qerr"
	"github.com/ygrebnov/qcore/queue"
)

// Deferrer is the write side of a Promise: Resolve, Reject, or
// ResolveByCalling settles it exactly once; later calls are silently
// ignored, mirroring the teacher's w.once.Do single-settlement idiom.
type Deferrer[T any] struct {
	unique  *UniqueState[T]
	queue   *queue.Queue
	settled atomic.Bool
	chainID string
}

// NewDeferrer builds a Deferrer whose Promise posts continuations to q by
// default. When qcore.LongStackSupport is enabled, the Deferrer tags
// rejections reaching Reject with a chain id (google/uuid), retrievable via
// qerr.Attachment[string], so an error observed far downstream can be traced
// back to the promise chain that produced it. Only errors that are a
// *qerr.AttachedError are tagged; any other error is settled unchanged.
func NewDeferrer[T any](q *queue.Queue) *Deferrer[T] {
	d := &Deferrer[T]{unique: newUniqueState[T](), queue: q}
	if qcore.LongStackSupport() {
		d.chainID = uuid.NewString()
	}
	return d
}

// Promise returns the read side of d. Calling Promise more than once is a
// programmer error (the returned Promise is a single-consumption handle),
// and is only safe to call once per Deferrer.
func (d *Deferrer[T]) Promise() *Promise[T] {
	return &Promise[T]{unique: d.unique, queue: d.queue}
}

// Resolve settles d with v. A no-op if d is already settled.
func (d *Deferrer[T]) Resolve(v T) {
	if d.settled.CompareAndSwap(false, true) {
		d.unique.state.settle(qcore.Val(v))
	}
}

// Reject settles d with err. A no-op if d is already settled, and panics if
// err is nil (constructing a failed outcome from a nil error is itself a
// programmer error, matching qcore.Failed).
func (d *Deferrer[T]) Reject(err error) {
	if err == nil {
		panic("promise: Reject called with a nil error")
	}
	if d.settled.CompareAndSwap(false, true) {
		if d.chainID != "" {
			if ae, ok := err.(*qerr.AttachedError); ok {
				// Wrap rather than ae.WithAttachment(...): WithAttachment
				// shallow-copies ae, so the tagged copy's Unwrap chain would
				// stop at ae.wrapped, losing ae's own identity. A sentinel
				// comparison like errors.Is(err, rxchannel.ErrClosed) would
				// then fail even though err originated from that sentinel.
				// Wrap keeps err itself (the original ae) as the wrapped
				// cause, so Unwrap still reaches it.
				err = qerr.Wrap(ae.Kind(), err, "promise chain").WithAttachment(d.chainID)
			}
		}
		d.unique.state.settle(qcore.Failed[T](err))
	}
}

// ResolveByCalling calls fn and settles d with its result: Resolve on
// success, Reject on error. A panic escaping fn is recovered and rejects d
// with the converted error instead of propagating to fn's caller — per
// spec.md's "if it throws, rejects" — so a panicking continuation settles
// its output promise instead of stalling it forever under Task.Run's own
// recover.
func (d *Deferrer[T]) ResolveByCalling(fn func() (T, error)) {
	v, err := callRecovering(fn)
	if err != nil {
		d.Reject(err)
		return
	}
	d.Resolve(v)
}

// callRecovering invokes fn, converting a panic into an error via
// qcore.PanicToError instead of letting it escape.
func callRecovering[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = qcore.PanicToError(r)
		}
	}()
	return fn()
}

// runSafely invokes fn, converting a panic into an error via
// qcore.PanicToError instead of letting it escape. Used by continuations
// whose user callback has no return value of its own (Tap, TapError,
// Finally) but whose panic must still settle the output promise rather than
// stall it.
func runSafely(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = qcore.PanicToError(r)
		}
	}()
	fn()
	return nil
}
