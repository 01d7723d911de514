package grok

import (
	"io"
	"log/slog"
	"time"
)

// DefaultMaxRecursion is the default number of rewriting steps a single
// Compile call may take. Each distinct placeholder text costs one step, no
// matter how often it occurs.
const DefaultMaxRecursion = 1024

// Option configures Compile using the functional options pattern.
type Option func(*config)

// config holds compile settings.
type config struct {
	engine       Engine
	maxRecursion int
	matchTimeout time.Duration
	logger       *slog.Logger
}

// discardLogger drops all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func defaultConfig() *config {
	return &config{
		engine:       EngineRE2,
		maxRecursion: DefaultMaxRecursion,
		logger:       discardLogger,
	}
}

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.maxRecursion <= 0 {
		cfg.maxRecursion = DefaultMaxRecursion
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger
	}
	return cfg
}

// WithEngine selects the regular expression engine.
// Default: EngineRE2.
func WithEngine(e Engine) Option {
	return func(c *config) {
		c.engine = e
	}
}

// WithMaxRecursion sets how many rewriting steps Compile may take before it
// gives up with ErrRecursionLimitExceeded. Values <= 0 select
// DefaultMaxRecursion.
func WithMaxRecursion(n int) Option {
	return func(c *config) {
		c.maxRecursion = n
	}
}

// WithMatchTimeout bounds a single match when the PCRE engine is in use.
// RE2 matching runs in linear time and ignores this setting.
func WithMatchTimeout(d time.Duration) Option {
	return func(c *config) {
		c.matchTimeout = d
	}
}

// WithLogger sets the logger for compile diagnostics.
// Default: discard all logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
