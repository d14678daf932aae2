// Package execctx bundles a dispatcher.Dispatcher, a scheduler.Scheduler,
// and a default queue.Queue into the single handle promise and observable
// construction take as their execution context, wiring the dispatcher's
// wake-up into the scheduler the way the teacher wires a single tasks
// channel into its dispatcher in workers.go.
package execctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/ygrebnov/qcore/dispatcher"
	"github.com/ygrebnov/qcore/queue"
	"github.com/ygrebnov/qcore/scheduler"
)

// wakeable is implemented by both dispatcher.Blocking and
// dispatcher.ThreadPool.
type wakeable interface {
	Wake() func()
}

// Context bundles the three collaborating pieces promise.Deferrer and
// observable constructors need: somewhere to run a Task, somewhere to pick
// the next one from, and a default place to push one into.
type Context struct {
	ID         string
	Dispatcher dispatcher.Dispatcher
	Scheduler  *scheduler.Scheduler
	Queue      *queue.Queue
}

// New bundles an already-constructed dispatcher, scheduler, and default
// queue. If d also implements Wake() func() (both dispatcher.Blocking and
// dispatcher.ThreadPool do), New wires it into sched via SetWake.
func New(d dispatcher.Dispatcher, sched *scheduler.Scheduler, q *queue.Queue) *Context {
	if w, ok := d.(wakeable); ok {
		sched.SetWake(w.Wake())
	}
	return &Context{ID: uuid.NewString(), Dispatcher: d, Scheduler: sched, Queue: q}
}

// NewDefault builds a Context with a fresh scheduler.Direct, one default
// queue, and a dispatcher.ThreadPool of the given parallelism (clamped to at
// least 1 by dispatcher.NewThreadPool). parallelism <= 1 yields an
// equivalent single-goroutine dispatcher.Blocking instead, matching the
// spec's "single-goroutine dispatcher as the degenerate N=1 case" framing.
func NewDefault(parallelism int) *Context {
	q := queue.New()
	sched := scheduler.Direct(q)

	var d dispatcher.Dispatcher
	if parallelism <= 1 {
		d = dispatcher.NewBlocking(sched)
	} else {
		d = dispatcher.NewThreadPool(sched, parallelism)
	}
	return New(d, sched, q)
}

// Start begins running the context's dispatcher; callers typically invoke
// this in its own goroutine and use Await/Terminate to wind it down.
func (c *Context) Start(ctx context.Context) { c.Dispatcher.Start(ctx) }

// Terminate requests the context's dispatcher wind down in the given mode.
func (c *Context) Terminate(mode dispatcher.TerminationMode) { c.Dispatcher.Terminate(mode) }

// Await blocks until the context's dispatcher has fully stopped.
func (c *Context) Await(ctx context.Context) error { return c.Dispatcher.Await(ctx) }

// Push schedules t on the context's default queue.
func (c *Context) Push(t func()) { c.Queue.Push(t) }
