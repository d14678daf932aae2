package qcore

import (
	"sync"
	"sync/atomic"

	"github.com/ygrebnov/qcore/qerr"
	"github.com/ygrebnov/qcore/qlog"
)

var defaultLogger = qlog.New()

// UncaughtHandler is called for any panic that escapes a Task run through
// Task.Run. A rejected promise that no continuation handles is not reported
// to it. The default implementation logs the error
// at Error level and does not terminate the process: a hard os.Exit inside
// an importable library is an anti-pattern the teacher itself avoids, so
// "abort" is opt-in via WithUncaughtHandler, not the unconditional default
// the original spec describes.
type UncaughtHandler func(error)

var uncaughtHandler atomic.Pointer[UncaughtHandler]

func init() {
	h := UncaughtHandler(defaultUncaughtHandler)
	uncaughtHandler.Store(&h)
}

func defaultUncaughtHandler(err error) {
	defaultLogger.Error("qcore: uncaught error", qlog.Err(err))
}

// ReportUncaught routes err to the process-wide uncaught-exception handler.
// Task.Run calls this with a recovered panic instead of letting it escape.
func ReportUncaught(err error) {
	if err == nil {
		return
	}
	if h := uncaughtHandler.Load(); h != nil {
		(*h)(err)
	}
}

// SetUncaughtHandler installs h as the process-wide uncaught-exception
// handler, returning the previous handler so callers can restore it (as
// Init's returned Scope does on Close).
func SetUncaughtHandler(h UncaughtHandler) UncaughtHandler {
	if h == nil {
		h = defaultUncaughtHandler
	}
	prev := uncaughtHandler.Swap(&h)
	if prev == nil {
		return defaultUncaughtHandler
	}
	return *prev
}

// longStackSupport toggles whether each new promise.Deferrer tags the
// *qerr.AttachedError rejections it settles with a chain id attachment. No
// stack snapshot is captured. Off by default.
var longStackSupport atomic.Bool

// LongStackSupport reports whether long-stack-support is currently enabled.
func LongStackSupport() bool { return longStackSupport.Load() }

// InitOption configures Init.
type InitOption func(*initOptions)

type initOptions struct {
	handler         UncaughtHandler
	longStackToggle bool
}

// WithUncaughtHandler installs h as the process-wide uncaught-exception
// handler for the lifetime of the returned Scope.
func WithUncaughtHandler(h UncaughtHandler) InitOption {
	return func(o *initOptions) { o.handler = h }
}

// WithLongStackSupport enables or disables chain-id tagging of
// *qerr.AttachedError rejections by promise.Deferrer (see LongStackSupport).
// No stack snapshot is captured. Default: off.
func WithLongStackSupport(enabled bool) InitOption {
	return func(o *initOptions) { o.longStackToggle = enabled }
}

// Init performs the scoped, process-wide initialization described in
// spec.md §6: it installs an uncaught-exception handler (default:
// log-and-continue) and toggles long-stack-support. The returned Scope
// restores the prior state on Close; Init itself may be called more than
// once (each call layers on the prior state and its Scope restores exactly
// that layer), matching the teacher's Config/Option "each call mutates a
// fresh builder" discipline rather than a true global singleton lock.
func Init(opts ...InitOption) (*Scope, error) {
	o := initOptions{handler: defaultUncaughtHandler}
	for _, opt := range opts {
		if opt == nil {
			return nil, qerr.New(qerr.Programmer, "nil Init option")
		}
		opt(&o)
	}

	prevHandler := SetUncaughtHandler(o.handler)
	prevLongStack := longStackSupport.Swap(o.longStackToggle)

	return NewScope(func() {
		SetUncaughtHandler(prevHandler)
		longStackSupport.Store(prevLongStack)
	}), nil
}

// Scope is an RAII-style cleanup holder: cleanups registered at
// construction run in LIFO order exactly once, under a sync.Once, mirroring
// the teacher's lifecycleCoordinator shutdown-sequencing discipline
// (lifecycle.go) generalized from a fixed nine-step sequence to an arbitrary
// ordered list of cleanups.
type Scope struct {
	once     sync.Once
	cleanups []func()
}

// NewScope builds a Scope that runs cleanups in LIFO order on Close.
func NewScope(cleanups ...func()) *Scope {
	return &Scope{cleanups: cleanups}
}

// Close runs every registered cleanup exactly once, most-recently-added
// first.
func (s *Scope) Close() {
	s.once.Do(func() {
		for i := len(s.cleanups) - 1; i >= 0; i-- {
			if c := s.cleanups[i]; c != nil {
				c()
			}
		}
	})
}
