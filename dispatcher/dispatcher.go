// Package dispatcher runs tasks surfaced by a scheduler.Scheduler: either on
// a single goroutine (Blocking) or across a fixed pool of worker goroutines
// (ThreadPool).
package dispatcher

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/qcore/metrics"
	"github.com/ygrebnov/qcore/scheduler"
)

// TerminationMode selects how Terminate winds a Dispatcher down.
type TerminationMode int

const (
	// Linger drains every task already scheduled, including those with a
	// future RunAt, before the dispatcher stops.
	Linger TerminationMode = iota
	// Annihilate finishes only in-flight tasks and discards the rest of
	// the backlog.
	Annihilate
)

// Dispatcher runs tasks surfaced by a scheduler.Scheduler.
type Dispatcher interface {
	// Start begins pulling and running tasks until ctx is done or
	// Terminate is called.
	Start(ctx context.Context)
	// Terminate requests a shutdown in the given mode. Non-blocking.
	Terminate(mode TerminationMode)
	// Await blocks until the dispatcher has fully stopped, or ctx is done.
	Await(ctx context.Context) error
	// Parallelism reports how many goroutines run tasks concurrently.
	Parallelism() int
}

// wake is a small, always-buffered channel used to poke a dispatcher that a
// scheduler has new work, mirroring the teacher's w.tasks channel used
// purely as a wake-up signal here (the task itself is fetched from the
// scheduler, not carried on the channel).
type wake chan struct{}

func newWake() wake { return make(wake, 1) }

func (w wake) poke() {
	select {
	case w <- struct{}{}:
	default:
	}
}

// runMetrics bundles the dispatch counter and duration histogram a Blocking
// or ThreadPool reports through, defaulting to metrics.NewNoopProvider so a
// dispatcher built without WithMetrics pays no instrumentation cost.
type runMetrics struct {
	dispatched metrics.Counter
	duration   metrics.Histogram
}

func newRunMetrics(provider metrics.Provider) runMetrics {
	return runMetrics{
		dispatched: provider.Counter(
			"qcore.dispatcher.tasks_dispatched",
			metrics.WithDescription("tasks run by a dispatcher"),
			metrics.WithUnit("1"),
		),
		duration: provider.Histogram(
			"qcore.dispatcher.task_duration_seconds",
			metrics.WithDescription("wall-clock duration of a single dispatched task"),
			metrics.WithUnit("s"),
		),
	}
}

func (m runMetrics) record(t interface{ Run() }) {
	start := time.Now()
	t.Run()
	m.dispatched.Add(1)
	m.duration.Record(time.Since(start).Seconds())
}

// Blocking is a single-goroutine Dispatcher: the run loop described by the
// teacher's Start/run loops, generalized to pull from a scheduler.Scheduler
// instead of a single channel, and to wait on the earliest pending
// TimedTask's instant via a time.Timer instead of blocking forever.
type Blocking struct {
	sched   *scheduler.Scheduler
	wake    wake
	metrics runMetrics

	mu        sync.Mutex
	mode      TerminationMode
	term      bool
	terminate chan struct{}
	done      chan struct{}
}

// Option configures a Blocking or ThreadPool dispatcher at construction.
type Option func(*options)

type options struct{ provider metrics.Provider }

// WithMetrics reports dispatch counts and per-task durations on provider
// (see runMetrics); omit for the default no-op provider.
func WithMetrics(provider metrics.Provider) Option {
	return func(o *options) { o.provider = provider }
}

func resolveOptions(opts []Option) options {
	o := options{provider: metrics.NewNoopProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewBlocking builds a Blocking dispatcher pulling from sched. Wiring a
// wake-up poke to sched's queues is the caller's responsibility — execctx
// does this by handing Wake to scheduler.SetWake.
func NewBlocking(sched *scheduler.Scheduler, opts ...Option) *Blocking {
	o := resolveOptions(opts)
	return &Blocking{
		sched:     sched,
		wake:      newWake(),
		metrics:   newRunMetrics(o.provider),
		terminate: make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Wake returns the notifier callback to hand to scheduler.SetWake, which
// installs it on every queue so each push pokes this dispatcher into
// re-checking the scheduler.
func (b *Blocking) Wake() func() { return b.wake.poke }

// Parallelism always reports 1 for Blocking.
func (b *Blocking) Parallelism() int { return 1 }

// Start runs the dispatch loop until ctx is done or Terminate is called.
// Start blocks; callers typically run it in its own goroutine.
func (b *Blocking) Start(ctx context.Context) {
	defer close(b.done)
	for {
		for {
			tt, ok := b.sched.Next(ctx)
			if !ok {
				break
			}
			b.metrics.record(tt.Task)
		}

		b.mu.Lock()
		terminating := b.term
		mode := b.mode
		b.mu.Unlock()
		if terminating && (mode == Annihilate || b.sched.Empty()) {
			return
		}

		wait := 24 * time.Hour
		if at, ok := b.sched.NextReadyAt(); ok {
			if d := time.Until(at); d > 0 {
				wait = d
			} else {
				continue
			}
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-b.terminate:
			timer.Stop()
		case <-b.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Terminate requests a shutdown in the given mode; non-blocking.
func (b *Blocking) Terminate(mode TerminationMode) {
	b.mu.Lock()
	if b.term {
		b.mu.Unlock()
		return
	}
	b.term = true
	b.mode = mode
	b.mu.Unlock()
	close(b.terminate)
}

// Await blocks until Start has returned, or ctx is done first.
func (b *Blocking) Await(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Dispatcher = (*Blocking)(nil)

// ThreadPool runs N worker goroutines pulling from a shared
// scheduler.Scheduler, supervised by an errgroup.Group exactly as the
// teacher's pool.Fixed workers are supervised by its lifecycleCoordinator —
// here the errgroup.Group only collects worker-goroutine completion: workers
// never return an error, since qcore routes task panics to the process-wide
// uncaught handler (qcore.Task.Run) rather than to a caller.
type ThreadPool struct {
	sched   *scheduler.Scheduler
	wake    wake
	n       int
	metrics runMetrics

	mu        sync.Mutex
	mode      TerminationMode
	term      bool
	terminate chan struct{}
	done      chan struct{}
}

// NewThreadPool builds a ThreadPool with n worker goroutines (clamped to at
// least 1) pulling from sched.
func NewThreadPool(sched *scheduler.Scheduler, n int, opts ...Option) *ThreadPool {
	if n < 1 {
		n = 1
	}
	o := resolveOptions(opts)
	return &ThreadPool{
		sched:     sched,
		wake:      newWake(),
		n:         n,
		metrics:   newRunMetrics(o.provider),
		terminate: make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Wake returns the notifier callback to hand to scheduler.SetWake, which
// installs it on every queue so each push pokes this pool into re-checking
// the scheduler.
func (p *ThreadPool) Wake() func() { return p.wake.poke }

// Parallelism reports the pool's worker-goroutine count.
func (p *ThreadPool) Parallelism() int { return p.n }

// Start launches the pool's n worker goroutines and blocks until every
// worker has exited (on ctx done or Terminate), or until ctx is done,
// whichever happens first for the caller's purposes — callers typically run
// Start in its own goroutine and use Await to synchronize.
func (p *ThreadPool) Start(ctx context.Context) {
	defer close(p.done)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.n; i++ {
		g.Go(func() error {
			p.runWorker(gctx)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *ThreadPool) runWorker(ctx context.Context) {
	for {
		tt, ok := p.sched.Next(ctx)
		if ok {
			p.metrics.record(tt.Task)
			continue
		}

		p.mu.Lock()
		terminating := p.term
		mode := p.mode
		p.mu.Unlock()
		if terminating && (mode == Annihilate || p.sched.Empty()) {
			return
		}

		wait := 24 * time.Hour
		if at, ok := p.sched.NextReadyAt(); ok {
			if d := time.Until(at); d > 0 {
				wait = d
			} else {
				continue
			}
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.terminate:
			timer.Stop()
		case <-p.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Terminate requests a shutdown in the given mode; non-blocking.
func (p *ThreadPool) Terminate(mode TerminationMode) {
	p.mu.Lock()
	if p.term {
		p.mu.Unlock()
		return
	}
	p.term = true
	p.mode = mode
	p.mu.Unlock()
	close(p.terminate)
}

// Await blocks until Start has returned, or ctx is done first.
func (p *ThreadPool) Await(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Dispatcher = (*ThreadPool)(nil)
