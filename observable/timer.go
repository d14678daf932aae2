package observable

import (
	"time"

	"github.com/ygrebnov/qcore"
	"github.com/ygrebnov/qcore/promise"
	"github.com/ygrebnov/qcore/queue"
	"github.com/ygrebnov/qcore/rxchannel"
)

// Timer emits value every d, with the n-th emission's delivery instant
// base + n*d (base being the instant Timer was called), using the queue's
// own PushAt timed-task facility as the timer collaborator spec.md §4.8
// leaves abstract. Stops emitting once the downstream channel closes.
func Timer[T any](q *queue.Queue, d time.Duration, value T, opts ...TimerOption) *Observable[T] {
	o := timerOptions{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	ch := rxchannel.New[T](q, o.capacity)

	base := time.Now()
	n := 0
	var tick func()
	tick = func() {
		if ch.IsClosed() {
			return
		}
		if !ch.Write(value) {
			ch.SetResumeNotification(func() {
				if ch.IsClosed() {
					return
				}
				q.Push(tick)
			})
			return
		}
		n++
		q.PushAt(tick, base.Add(time.Duration(n+1)*d))
	}
	q.PushAt(tick, base.Add(d))
	return &Observable[T]{ch: ch, q: q}
}

// StartAsync is Start's promise-returning counterpart, supplementing the
// spec with the original source's async "start" variant: fn returns a
// *promise.Promise[T] whose settlement becomes the observable's single
// emission (or close-err, on rejection).
func StartAsync[T any](q *queue.Queue, fn func() *promise.Promise[T]) *Observable[T] {
	ch := rxchannel.New[T](q, 1)
	q.Push(func() {
		fn().Finally(func(e qcore.Expected[T]) {
			if e.HasError() {
				ch.CloseErr(e.Err())
				return
			}
			v, _ := e.Value()
			ch.Write(v)
			ch.Close()
		})
	})
	return &Observable[T]{ch: ch, q: q}
}
