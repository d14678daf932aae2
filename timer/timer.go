// Package timer declares the timer-delivery collaborator contract spec.md
// §4.8 leaves abstract: something able to resolve a promise after a delay.
// qcore's own timed delivery (promise.Promise.Delay, queue.Queue.PushAt) is
// self-contained and does not depend on this interface — it exists so
// external code (tests, examples, an alternate runtime integration) can
// substitute its own delay source without reimplementing the queue's
// time-ordered heap.
package timer

import (
	"time"

	"github.com/ygrebnov/qcore/promise"
)

// Dispatcher resolves its returned promise no sooner than d after Delay is
// called.
type Dispatcher interface {
	Delay(d time.Duration) *promise.Promise[struct{}]
}
