// Package qcore provides the async execution substrate shared by every
// other package in this module: expected values, nothrow tasks, a monotonic
// clock, an immutable byte Block, scoped lifetimes, and the process-wide
// runtime state (the uncaught-exception handler and the long-stack-support
// toggle). The errno registry lives in qcore/qerr.
//
// # Settled outcomes
//
// Expected[T] holds exactly one of a value or an error:
//
//	e := qcore.Val(42)
//	v, err := e.Value() // v == 42, err == nil
//
// # Process-wide initialization
//
// Init installs the uncaught-exception handler used whenever a panic escapes
// a Task run through Task.Run (a rejected promise that nothing handles is not
// reported to it):
//
//	scope, err := qcore.Init(
//		qcore.WithUncaughtHandler(func(err error) { log.Println(err) }),
//	)
//	defer scope.Close()
//
// # Related packages
//
//   - qcore/qerr: the Kind/AttachedError model used throughout this module.
//   - qcore/queue, qcore/scheduler, qcore/dispatcher, qcore/execctx: the
//     task-execution substrate.
//   - qcore/promise: typed promises built on top of the substrate.
//   - qcore/rxchannel, qcore/observable: the reactive-stream layer.
package qcore
