// Package queue provides an ordered sink for tasks: a FIFO of immediate
// tasks plus a min-heap of instant-scheduled tasks, a priority and
// parallelism hint, and a single installed notifier.
//
// Push and PushAt are thread-safe, and the single installed downstream
// notifier is woken once per push. The time-ordered heap is a
// container/heap ordering by instant, with no I/O-poller wiring attached.
package queue

import (
	"container/heap"
	"sync"
	"time"

	"github.com/ygrebnov/qcore"
	"github.com/ygrebnov/qcore/metrics"
	"github.com/ygrebnov/qcore/qerr"
)

// TimedTask is either a plain task or a task paired with the instant it
// should run at. Comparison is by RunAt; a zero RunAt means "ready
// immediately".
type TimedTask struct {
	Task  qcore.Task
	RunAt time.Time
}

// Ready reports whether t is runnable at instant now.
func (t TimedTask) Ready(now time.Time) bool {
	return t.RunAt.IsZero() || !t.RunAt.After(now)
}

// Queue is an ordered sink for tasks, with optional scheduled-at instants
// and a single installed downstream notifier.
type Queue struct {
	mu           sync.Mutex
	priority     int
	parallelism  int
	clock        qcore.Clock
	backlogGauge metrics.UpDownCounter

	immediate []qcore.Task
	timed     timedHeap

	notify     func()
	notifyPara int
}

// Option configures a Queue at construction.
type Option func(*Queue)

// WithPriority sets the queue's scheduling priority (higher runs first).
func WithPriority(p int) Option { return func(q *Queue) { q.priority = p } }

// WithParallelism sets the queue's parallelism hint.
func WithParallelism(n int) Option { return func(q *Queue) { q.parallelism = n } }

// WithClock overrides the queue's time source (default: qcore.SystemClock).
func WithClock(c qcore.Clock) Option { return func(q *Queue) { q.clock = c } }

// WithMetrics reports the queue's backlog (immediate plus timed, pending
// tasks) as an UpDownCounter named "qcore.queue.backlog" on provider, moving
// up on every Push/PushAt and down on every Pop.
func WithMetrics(provider metrics.Provider) Option {
	return func(q *Queue) {
		q.backlogGauge = provider.UpDownCounter(
			"qcore.queue.backlog",
			metrics.WithDescription("pending tasks held by a queue.Queue"),
			metrics.WithUnit("1"),
		)
	}
}

// New builds an empty Queue.
func New(opts ...Option) *Queue {
	q := &Queue{clock: qcore.SystemClock{}, backlogGauge: metrics.NewNoopProvider().UpDownCounter("")}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Priority returns the queue's scheduling priority.
func (q *Queue) Priority() int { return q.priority }

// Parallelism returns the queue's parallelism hint.
func (q *Queue) Parallelism() int { return q.parallelism }

// Push appends t to the immediate FIFO and fires the notifier, if any.
func (q *Queue) Push(t qcore.Task) {
	q.mu.Lock()
	q.immediate = append(q.immediate, t)
	notify := q.notify
	q.mu.Unlock()
	q.backlogGauge.Add(1)
	if notify != nil {
		notify()
	}
}

// PushAt schedules t to become visible at instant at (treated as immediate
// if at is zero or already passed) and fires the notifier, if any.
func (q *Queue) PushAt(t qcore.Task, at time.Time) {
	if at.IsZero() || !at.After(q.clock.Now()) {
		q.Push(t)
		return
	}

	q.mu.Lock()
	heap.Push(&q.timed, TimedTask{Task: t, RunAt: at})
	notify := q.notify
	q.mu.Unlock()
	q.backlogGauge.Add(1)
	if notify != nil {
		notify()
	}
}

// SetNotifier installs fn as the queue's single downstream notifier,
// returning the current backlog so the caller (typically a scheduler) can
// synthesize catch-up notifications for work already queued. fn fires once
// per subsequent Push/PushAt.
func (q *Queue) SetNotifier(fn func(), parallelism int) (backlog int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notify = fn
	q.notifyPara = parallelism
	return len(q.immediate) + len(q.timed)
}

// Backlog returns the number of tasks currently held by the queue,
// regardless of readiness — both immediate and not-yet-ready timed tasks.
func (q *Queue) Backlog() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.immediate) + len(q.timed)
}

// Empty reports whether Pop would currently fail: no immediate tasks and no
// timed task whose instant has passed.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.emptyLocked()
}

func (q *Queue) emptyLocked() bool {
	if len(q.immediate) > 0 {
		return false
	}
	if len(q.timed) == 0 {
		return true
	}
	return !q.timed[0].Ready(q.clock.Now())
}

// NextReadyAt returns the instant of the earliest pending timed task, if
// any, regardless of its current readiness. Dispatchers use this to size a
// wait timer.
func (q *Queue) NextReadyAt() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.timed) == 0 {
		return time.Time{}, false
	}
	return q.timed[0].RunAt, true
}

// Pop removes and returns the next runnable task: immediate tasks are
// popped in FIFO order ahead of ready timed tasks (timed tasks surface only
// once their instant has passed). Popping an empty queue returns a
// ValueAbsent error — it is the caller's (typically the scheduler's)
// responsibility to check Empty first.
func (q *Queue) Pop() (TimedTask, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.immediate) > 0 {
		t := q.immediate[0]
		q.immediate = q.immediate[1:]
		q.backlogGauge.Add(-1)
		return TimedTask{Task: t}, nil
	}

	if len(q.timed) > 0 && q.timed[0].Ready(q.clock.Now()) {
		tt := heap.Pop(&q.timed).(TimedTask)
		q.backlogGauge.Add(-1)
		return tt, nil
	}

	return TimedTask{}, qerr.New(qerr.ValueAbsent, "Pop called on an empty queue")
}

// timedHeap is a container/heap of TimedTask ordered by RunAt.
type timedHeap []TimedTask

func (h timedHeap) Len() int            { return len(h) }
func (h timedHeap) Less(i, j int) bool  { return h[i].RunAt.Before(h[j].RunAt) }
func (h timedHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timedHeap) Push(x any)         { *h = append(*h, x.(TimedTask)) }
func (h *timedHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
