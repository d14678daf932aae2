package timer

import (
	"time"

	"github.com/ygrebnov/qcore/promise"
	"github.com/ygrebnov/qcore/queue"
)

// Wall is a trivial timer.Dispatcher built directly on time.AfterFunc,
// grounded on joeycumines-go-utilpkg/eventloop's timer-scheduling pattern
// stripped of its poller/FD plumbing. It is not part of the core library —
// qcore's own Delay and PushAt never depend on a timer.Dispatcher — but it
// gives runnable examples a concrete collaborator to wire.
type Wall struct {
	queue *queue.Queue
}

// NewWall builds a Wall delivering its promises on q.
func NewWall(q *queue.Queue) *Wall { return &Wall{queue: q} }

// Delay resolves the returned promise no sooner than d from now.
func (w *Wall) Delay(d time.Duration) *promise.Promise[struct{}] {
	deferrer := promise.NewDeferrer[struct{}](w.queue)
	time.AfterFunc(d, func() { deferrer.Resolve(struct{}{}) })
	return deferrer.Promise()
}

var _ Dispatcher = (*Wall)(nil)
