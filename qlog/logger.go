package qlog

import (
	"io"
	"log/slog"
	"os"
)

type config struct {
	level     slog.Level
	json      bool
	output    io.Writer
	attrs     []slog.Attr
	addSource bool
}

// Option configures a logger built by New.
type Option func(*config)

// WithLevel sets the minimum level records must meet to be logged.
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithJSONFormatter selects slog.JSONHandler instead of the default
// slog.TextHandler.
func WithJSONFormatter() Option {
	return func(c *config) { c.json = true }
}

// WithOutput sets the writer records are emitted to (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithSource enables source file/line annotation on every record.
func WithSource() Option {
	return func(c *config) { c.addSource = true }
}

// WithAttr attaches static attributes (a service name, a version, ...) to
// every record the built logger emits.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) { c.attrs = append(c.attrs, attrs...) }
}

// WithDevelopment configures a human-readable, debug-level text logger
// naming component, tagged under "service".
func WithDevelopment(component string) Option {
	return func(c *config) {
		c.level = slog.LevelDebug
		c.json = false
		c.attrs = append(c.attrs, slog.String("service", component))
	}
}

// WithProduction configures a JSON, info-level logger tagged under
// "service".
func WithProduction(component string) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		c.json = true
		c.attrs = append(c.attrs, slog.String("service", component))
	}
}

// New builds an *slog.Logger from opts, defaulting to an info-level text
// logger writing to os.Stdout with no static attributes — the same
// functional-option construction idiom the teacher uses for its own
// Config/Option pairs (workers.go, queue.Option here), applied to
// logging instead of worker-pool tuning.
func New(opts ...Option) *slog.Logger {
	c := config{level: slog.LevelInfo, output: os.Stdout}
	for _, opt := range opts {
		opt(&c)
	}

	handlerOpts := &slog.HandlerOptions{Level: c.level, AddSource: c.addSource}
	var handler slog.Handler
	if c.json {
		handler = slog.NewJSONHandler(c.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(c.output, handlerOpts)
	}
	if len(c.attrs) > 0 {
		handler = handler.WithAttrs(c.attrs)
	}
	return slog.New(handler)
}
