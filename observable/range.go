package observable

import (
	"github.com/ygrebnov/qcore/queue"
	"github.com/ygrebnov/qcore/rxchannel"
)

// Range emits count values starting at start, incrementing by one each
// time. With the default capacity (count, clamped to at least 1) every
// value fits and the producer writes eagerly before closing; a smaller
// WithRangeCapacity makes it back-pressure via resume notifications
// instead.
func Range(q *queue.Queue, start, count int, opts ...RangeOption) *Observable[int] {
	o := rangeOptions{capacity: count}
	if o.capacity < 1 {
		o.capacity = 1
	}
	for _, opt := range opts {
		opt(&o)
	}
	ch := rxchannel.New[int](q, o.capacity)

	i := 0
	var step func()
	step = func() {
		for i < count {
			if !ch.Write(start + i) {
				ch.SetResumeNotification(func() { q.Push(step) })
				return
			}
			i++
		}
		ch.Close()
	}
	q.Push(step)
	return &Observable[int]{ch: ch, q: q}
}

// RangeVoid emits count void values, otherwise behaving exactly like Range.
func RangeVoid(q *queue.Queue, count int, opts ...RangeOption) *Observable[struct{}] {
	o := rangeOptions{capacity: count}
	if o.capacity < 1 {
		o.capacity = 1
	}
	for _, opt := range opts {
		opt(&o)
	}
	ch := rxchannel.New[struct{}](q, o.capacity)

	i := 0
	var step func()
	step = func() {
		for i < count {
			if !ch.Write(struct{}{}) {
				ch.SetResumeNotification(func() { q.Push(step) })
				return
			}
			i++
		}
		ch.Close()
	}
	q.Push(step)
	return &Observable[struct{}]{ch: ch, q: q}
}
