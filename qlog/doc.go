// Package qlog provides the structured logging helpers qcore's default
// uncaught-panic handler uses to report errors routed to it: nil-safe
// attribute constructors built on log/slog, and a small functional-option
// logger factory.
//
// # Basic usage
//
//	log := qlog.New(qlog.WithDevelopment("qcore-example"))
//	log.Error("task panicked", qlog.Err(err), qlog.Component("dispatcher"))
//
// # Production configuration
//
//	log := qlog.New(
//		qlog.WithProduction("qcore-example"),
//		qlog.WithAttr(slog.String("version", "1.0.0")),
//	)
package qlog
