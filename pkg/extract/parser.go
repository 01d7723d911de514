package extract

import (
	"context"
	"errors"
)

// Result is the outcome of parsing one line.
type Result struct {
	// Events contains the extracted events.
	Events []Event

	// Matched reports whether the parser recognized the line. It can be true
	// with no events, e.g. for a condition that accepts nothing.
	Matched bool
}

// Parser turns a log line into events.
type Parser interface {
	// ParseLine parses a single line. Unrecognized lines are reported with
	// Matched=false and a nil error; errors are for failures only.
	ParseLine(ctx context.Context, line string) (Result, error)
}

// ParserFunc adapts an ordinary function to the Parser interface.
type ParserFunc func(ctx context.Context, line string) (Result, error)

// ParseLine implements Parser.
func (f ParserFunc) ParseLine(ctx context.Context, line string) (Result, error) {
	return f(ctx, line)
}

// ChainMode specifies how a Chain runs its parsers.
type ChainMode int

const (
	// ChainAll runs every parser and combines the results (default).
	ChainAll ChainMode = iota

	// ChainFirst stops at the first parser that matches.
	ChainFirst

	// ChainContinueOnError skips parsers that fail and keeps going. The
	// errors are joined and returned together with the collected events.
	ChainContinueOnError
)

func (m ChainMode) String() string {
	switch m {
	case ChainAll:
		return "all"
	case ChainFirst:
		return "first"
	case ChainContinueOnError:
		return "continue-on-error"
	default:
		return "unknown"
	}
}

// Chain runs several parsers against the same line.
type Chain struct {
	Mode    ChainMode
	Parsers []Parser
}

// ParseLine implements Parser. Nil parsers are skipped.
//
// If ctx is cancelled between parsers, ParseLine returns the events collected
// so far together with the context error.
func (c *Chain) ParseLine(ctx context.Context, line string) (Result, error) {
	var events []Event
	var errs []error
	matched := false

	for _, p := range c.Parsers {
		if err := ctx.Err(); err != nil {
			return Result{Events: events, Matched: matched}, err
		}
		if p == nil {
			continue
		}

		res, err := p.ParseLine(ctx, line)
		if err != nil {
			if c.Mode == ChainContinueOnError {
				errs = append(errs, err)
				continue
			}
			return Result{}, err
		}
		if !res.Matched {
			continue
		}
		matched = true
		events = append(events, res.Events...)
		if c.Mode == ChainFirst {
			break
		}
	}

	if len(errs) > 0 {
		return Result{Events: events, Matched: matched}, errors.Join(errs...)
	}
	return Result{Events: events, Matched: matched}, nil
}
