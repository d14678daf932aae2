package qlog

import (
	"log/slog"
	"time"
)

// Attribute helpers follow the empty-Attr pattern for nil safety: calling
// qlog.Err(err) or qlog.Queue("") with a zero value is always safe and
// simply contributes nothing to the log line, rather than requiring the
// caller to guard every call site.
//
// Grounded on dmitrymomot-foundation's core/logger attribute helpers,
// narrowed from its general-purpose HTTP/tracing set to a handful of
// qcore-specific attributes.

// Err creates an attribute for a single error under the key "error".
// Returns an empty Attr for a nil error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Queue creates an attribute identifying a queue by name. Returns an empty
// Attr for an empty name.
func Queue(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("queue", name)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component creates an attribute naming the reporting component.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// ChainID creates an attribute carrying a promise chain identifier, used
// only when qcore.LongStackSupport is enabled.
func ChainID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("chain_id", id)
}

// Kind creates an attribute carrying a qerr.Kind's string form.
func Kind(kind string) slog.Attr {
	if kind == "" {
		return slog.Attr{}
	}
	return slog.String("kind", kind)
}
