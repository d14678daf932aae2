package observable

// Functional options for the observable constructors and operators that
// need to tune a channel's capacity (and, for Timer, its delay collaborator)
// — one distinct option type per constructor, mirroring the teacher's own
// Config/Option pair, generalized to several small option sets instead of
// one shared one.

type rangeOptions struct{ capacity int }

// RangeOption configures Range and RangeVoid.
type RangeOption func(*rangeOptions)

// WithRangeCapacity sets the channel capacity Range/RangeVoid write into.
// Below the full count, the producer back-pressures via resume
// notifications instead of writing eagerly.
func WithRangeCapacity(n int) RangeOption {
	return func(o *rangeOptions) { o.capacity = n }
}

type createOptions struct{ capacity int }

// CreateOption configures Create.
type CreateOption func(*createOptions)

// WithCreateCapacity sets the channel capacity a Create producer writes
// into.
func WithCreateCapacity(n int) CreateOption {
	return func(o *createOptions) { o.capacity = n }
}

type timerOptions struct{ capacity int }

// TimerOption configures Timer.
type TimerOption func(*timerOptions)

// WithTimerCapacity sets the channel capacity Timer writes into.
func WithTimerCapacity(n int) TimerOption {
	return func(o *timerOptions) { o.capacity = n }
}

type repeatOptions struct{ capacity int }

// RepeatOption configures Repeat.
type RepeatOption func(*repeatOptions)

// WithRepeatCapacity sets the channel capacity Repeat replays into.
func WithRepeatCapacity(n int) RepeatOption {
	return func(o *repeatOptions) { o.capacity = n }
}
