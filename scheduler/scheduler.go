// Package scheduler fans a single dispatcher notification out over one or
// more priority-banded queue.Queues, round-robining within a priority band
// and favoring higher-priority bands first.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ygrebnov/qcore/qerr"
	"github.com/ygrebnov/qcore/queue"
)

// Scheduler multiplexes zero or more queues into a single ordered stream of
// runnable tasks, respecting each queue's priority.
type Scheduler struct {
	mu     sync.Mutex
	queues []*queue.Queue
	cursor map[int]int // priority band -> round-robin cursor
	direct bool
	wake   func()
}

// New builds an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{cursor: make(map[int]int)}
}

// Direct builds a Scheduler wired to exactly one queue, bypassing the
// round-robin machinery. Adding a second queue to a Direct scheduler returns
// a Scheduling error: callers that know they have exactly one queue should
// prefer this over New to skip the per-Next scan.
func Direct(q *queue.Queue) *Scheduler {
	s := New()
	s.queues = append(s.queues, q)
	s.direct = true
	return s
}

// Add registers q with the scheduler. Adding a queue to a Direct scheduler
// is rejected. If a dispatcher wake-up has already been installed via
// SetWake, Add installs it as q's notifier immediately and replays one poke
// per task already backlogged in q: no task already sitting in the queue is
// silently missed just because the notifier arrived late.
func (s *Scheduler) Add(q *queue.Queue) error {
	s.mu.Lock()
	if s.direct && len(s.queues) >= 1 {
		s.mu.Unlock()
		return qerr.New(qerr.Scheduling, "cannot Add a second queue to a Direct scheduler")
	}
	s.queues = append(s.queues, q)
	wake := s.wake
	s.mu.Unlock()

	if wake != nil {
		installAndReplay(q, wake)
	}
	return nil
}

// SetWake installs fn as the notifier every registered (and subsequently
// added) queue pokes on new work, replaying one poke per task already
// backlogged in every currently-registered queue.
func (s *Scheduler) SetWake(fn func()) {
	s.mu.Lock()
	s.wake = fn
	queues := make([]*queue.Queue, len(s.queues))
	copy(queues, s.queues)
	s.mu.Unlock()

	for _, q := range queues {
		installAndReplay(q, fn)
	}
}

func installAndReplay(q *queue.Queue, wake func()) {
	backlog := q.SetNotifier(wake, q.Parallelism())
	for i := 0; i < backlog; i++ {
		wake()
	}
}

// Queues returns the scheduler's currently registered queues, highest
// priority first, for diagnostics and for wiring dispatcher notifications.
func (s *Scheduler) Queues() []*queue.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*queue.Queue, len(s.queues))
	copy(out, s.queues)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() > out[j].Priority() })
	return out
}

// Empty reports whether every registered queue is currently empty.
func (s *Scheduler) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queues {
		if !q.Empty() {
			return false
		}
	}
	return true
}

// Next returns the next runnable task across every registered queue:
// higher-priority bands are drained before lower ones, and queues sharing a
// priority band are visited round-robin. Next returns (zero, false) without
// blocking when nothing is currently runnable; ctx is honored only insofar
// as it is checked once up front (Next never blocks on ctx itself — callers
// needing to wait for readiness should consult NextReadyAt across their
// queues and use a timer, as the dispatcher package does).
func (s *Scheduler) Next(ctx context.Context) (queue.TimedTask, bool) {
	select {
	case <-ctx.Done():
		return queue.TimedTask{}, false
	default:
	}

	if s.direct {
		if tt, err := s.queues[0].Pop(); err == nil {
			return tt, true
		}
		return queue.TimedTask{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bands := make(map[int][]*queue.Queue)
	for _, q := range s.queues {
		bands[q.Priority()] = append(bands[q.Priority()], q)
	}
	priorities := make([]int, 0, len(bands))
	for p := range bands {
		priorities = append(priorities, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(priorities)))

	for _, p := range priorities {
		band := bands[p]
		start := s.cursor[p] % len(band)
		for i := 0; i < len(band); i++ {
			idx := (start + i) % len(band)
			q := band[idx]
			if tt, err := q.Pop(); err == nil {
				s.cursor[p] = idx + 1
				return tt, true
			}
		}
	}
	return queue.TimedTask{}, false
}

// NextReadyAt returns the earliest instant at which any registered queue
// will next have a ready timed task, across all queues. Dispatchers use
// this to size a wait timer when Next currently finds nothing runnable.
func (s *Scheduler) NextReadyAt() (t time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.queues {
		if at, has := q.NextReadyAt(); has {
			if !ok || at.Before(t) {
				t, ok = at, true
			}
		}
	}
	return t, ok
}
