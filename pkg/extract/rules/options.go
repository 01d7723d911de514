package rules

import (
	"io"
	"log/slog"

	"github.com/logfield/grok-go/pkg/grok"
)

// Option configures NewRuleParser.
type Option func(*parserConfig)

type parserConfig struct {
	registry    *grok.Registry
	compileOpts []grok.Option
	logger      *slog.Logger
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// WithRegistry sets the registry rule templates are resolved against. The
// file's own patterns are added to a clone; reg itself is not modified.
// Default: an empty registry (built-in fragments only).
func WithRegistry(reg *grok.Registry) Option {
	return func(c *parserConfig) {
		c.registry = reg
	}
}

// WithCompileOptions passes options such as grok.WithEngine to every
// template compile.
func WithCompileOptions(opts ...grok.Option) Option {
	return func(c *parserConfig) {
		c.compileOpts = append(c.compileOpts, opts...)
	}
}

// WithLogger sets the logger for rule compilation and match-time failures.
// Default: discard all logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *parserConfig) {
		c.logger = logger
	}
}
