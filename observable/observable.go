// Package observable implements the reactive-stream layer on top of
// rxchannel.Channel: typed observables with create/from/range/just/never/
// empty/start/timer constructors, the repeat/map/buffer/group_by operators,
// and the consume terminal sink — all driven by the same queue.Queue that
// schedules promise continuations, so an observable pipeline and a promise
// chain interleave on one dispatcher.
//
// Grounded on the teacher's task-intake idiom (one task per unit of work,
// posted to a queue, recovered if it panics): every producer loop here is a
// self-re-posting queue.Task rather than its own goroutine.
package observable

import (
	"github.com/ygrebnov/qcore/queue"
	"github.com/ygrebnov/qcore/rxchannel"
)

// Observable is a read-handle over a channel, tagged by its element type,
// holding the queue its emissions (and any consume callback) run on.
type Observable[T any] struct {
	ch *rxchannel.Channel[T]
	q  *queue.Queue
}

// Channel returns the observable's backing channel.
func (o *Observable[T]) Channel() *rxchannel.Channel[T] { return o.ch }

// Queue returns the queue the observable's emissions are scheduled on.
func (o *Observable[T]) Queue() *queue.Queue { return o.q }

const defaultCapacity = 1

// Observer is handed to a Create producer to push values, signal
// completion, or fail the observable it backs.
type Observer[T any] struct {
	ch *rxchannel.Channel[T]
}

// OnNext writes v downstream, reporting whether it was accepted (false
// means the channel is closed or over capacity — honor ShouldSend instead
// of ignoring a false return).
func (o Observer[T]) OnNext(v T) bool { return o.ch.Write(v) }

// OnCompleted closes the channel ok.
func (o Observer[T]) OnCompleted() { o.ch.Close() }

// OnError closes the channel with err.
func (o Observer[T]) OnError(err error) { o.ch.CloseErr(err) }

// Empty returns an observable whose channel is closed immediately.
func Empty[T any](q *queue.Queue) *Observable[T] {
	ch := rxchannel.New[T](q, 0)
	ch.Close()
	return &Observable[T]{ch: ch, q: q}
}

// Never returns an observable whose channel stays open forever and never
// emits. Capacity 0: the spec's own open question about "never"'s capacity
// is resolved in favor of 0, since a capacity-of-1 never observable cannot
// be distinguished from one that buffers a single phantom slot it will
// never deliver.
func Never[T any](q *queue.Queue) *Observable[T] {
	return &Observable[T]{ch: rxchannel.New[T](q, 0), q: q}
}

// Just writes every value in vs, in order, then closes ok.
func Just[T any](q *queue.Queue, vs ...T) *Observable[T] {
	capacity := len(vs)
	if capacity == 0 {
		capacity = 1
	}
	ch := rxchannel.New[T](q, capacity)
	for _, v := range vs {
		ch.Write(v)
	}
	ch.Close()
	return &Observable[T]{ch: ch, q: q}
}

// From writes every element of items, in order, then closes ok.
func From[T any](q *queue.Queue, items []T) *Observable[T] { return Just(q, items...) }

// FromIter pulls values from next (which reports false once exhausted),
// writing each downstream and respecting back-pressure via a resume
// notification when the channel is full.
func FromIter[T any](q *queue.Queue, next func() (T, bool)) *Observable[T] {
	ch := rxchannel.New[T](q, defaultCapacity)
	var step func()
	step = func() {
		for {
			v, ok := next()
			if !ok {
				ch.Close()
				return
			}
			if !ch.Write(v) {
				ch.SetResumeNotification(func() { q.Push(step) })
				return
			}
		}
	}
	q.Push(step)
	return &Observable[T]{ch: ch, q: q}
}

// Create posts a task to q that invokes producer with an Observer wired to
// a fresh channel of the configured capacity (default 1).
func Create[T any](q *queue.Queue, producer func(Observer[T]), opts ...CreateOption) *Observable[T] {
	o := createOptions{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&o)
	}
	ch := rxchannel.New[T](q, o.capacity)
	q.Push(func() { producer(Observer[T]{ch: ch}) })
	return &Observable[T]{ch: ch, q: q}
}

// Start runs fn once; its result becomes the observable's single emission,
// followed by a close-ok, or a close-err if fn returns an error.
func Start[T any](q *queue.Queue, fn func() (T, error)) *Observable[T] {
	ch := rxchannel.New[T](q, 1)
	q.Push(func() {
		v, err := fn()
		if err != nil {
			ch.CloseErr(err)
			return
		}
		ch.Write(v)
		ch.Close()
	})
	return &Observable[T]{ch: ch, q: q}
}
