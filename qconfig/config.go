// Package qconfig loads the runnable examples' configuration from the
// environment. It has no bearing on the library itself — qcore takes all
// configuration through constructors and functional options, exactly as the
// teacher's own Config/Option pair works — it exists purely so a runnable
// example program can pick worker counts, queue buffer sizes, and log format
// without a hand-rolled flag parser. This repository ships no such program.
//
// Grounded on dmitrymomot-foundation's env:"..." / envDefault:"..." struct
// tag convention (app/simple/config.go) and its caarlos0/env.Parse call
// site (integration/database/mongo/doc.go).
package qconfig

import "github.com/caarlos0/env/v11"

// Config is the environment-driven configuration for qcore's runnable
// examples.
type Config struct {
	// Parallelism is the number of ThreadPool worker goroutines to run (0 or
	// 1 selects the single-goroutine Blocking dispatcher instead).
	Parallelism int `env:"QCORE_PARALLELISM" envDefault:"1"`
	// QueueCapacity bounds the rxchannel.Channel capacity observables in the
	// examples write into.
	QueueCapacity int `env:"QCORE_QUEUE_CAPACITY" envDefault:"16"`
	// LogLevel selects the qlog logger's minimum level: "debug", "info",
	// "warn", or "error".
	LogLevel string `env:"QCORE_LOG_LEVEL" envDefault:"info"`
	// LogJSON selects JSON-formatted log output over text.
	LogJSON bool `env:"QCORE_LOG_JSON" envDefault:"false"`
}

// Load parses a Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
