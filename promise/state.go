package promise

import (
	"sync"
	"sync/atomic"

	"github.com/ygrebnov/qcore"
	"github.com/ygrebnov/qcore/qerr"
)

// State owns a settled Expected[T] plus the Signal that replays
// continuations once it arrives. Settlement happens at most once, guarded
// by a sync.Once so a racing Resolve/Reject pair is resolved in favor of
// whichever wins the race, silently dropping the loser — the same
// single-settlement discipline as the teacher's w.once.Do.
type State[T any] struct {
	once   sync.Once
	signal Signal
	value  qcore.Expected[T]
}

func (s *State[T]) settle(e qcore.Expected[T]) {
	s.once.Do(func() {
		s.value = e
		s.signal.Settle()
	})
}

// get returns the settled value. Valid only once s.signal.Settled() is true
// for the caller (continuations only ever run after Settle, which happens
// strictly before this value is readable to them).
func (s *State[T]) get() qcore.Expected[T] { return s.value }

// UniqueState is the single-consumption form of State: at most one
// continuation chain may be attached to it. Upgrade performs the one-way
// move to a SharedState, after which the UniqueState must not be used
// again.
type UniqueState[T any] struct {
	state    *State[T]
	consumed atomic.Bool
}

func newUniqueState[T any]() *UniqueState[T] { return &UniqueState[T]{state: &State[T]{}} }

// markConsumed marks u consumed, panicking if it already was. Mirrors Go's
// own "close of closed channel" panic for a double-use programmer error
// rather than returning a recoverable error, since there is no sensible
// caller-side recovery from reusing a linear handle.
func (u *UniqueState[T]) markConsumed() {
	if !u.consumed.CompareAndSwap(false, true) {
		panic(qerr.New(qerr.Programmer, "promise: unique promise consumed more than once"))
	}
}

// SharedState is the cloneable form of State: any number of independent
// continuation chains may observe the same settled value.
type SharedState[T any] struct {
	state *State[T]
}

// Upgrade performs the one-way move from a UniqueState to a SharedState,
// consuming u so it cannot be attached to again.
func Upgrade[T any](u *UniqueState[T]) *SharedState[T] {
	u.markConsumed()
	return &SharedState[T]{state: u.state}
}
