package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/logfield/grok-go/pkg/extract"
	"github.com/logfield/grok-go/pkg/grok"
)

// RuleParser matches lines against the rules of a RuleFile. A line can
// produce several events when several rules match.
//
// RuleParser is safe for concurrent use by multiple goroutines.
type RuleParser struct {
	rules  []*compiledRule
	logger *slog.Logger
}

type compiledRule struct {
	index     int
	id        string
	eventType string
	pattern   *grok.Pattern
	when      *vm.Program
}

// NewRuleParser compiles every rule of rf. Fragments in rf.Patterns are
// registered on top of the configured registry before any template is
// compiled.
//
// Errors are *RuleError values wrapping the grok or expr error.
func NewRuleParser(rf *RuleFile, opts ...Option) (*RuleParser, error) {
	if rf == nil {
		return nil, errors.New("rule file is nil")
	}

	cfg := &parserConfig{logger: discardLogger}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger
	}

	var reg *grok.Registry
	if cfg.registry != nil {
		reg = cfg.registry.Clone()
	} else {
		reg = grok.NewRegistry()
	}
	reg.AddPatterns(rf.Patterns)

	compileOpts := append([]grok.Option{grok.WithLogger(cfg.logger)}, cfg.compileOpts...)

	compiled := make([]*compiledRule, 0, len(rf.Rules))
	for i, r := range rf.Rules {
		p, err := reg.Compile(r.Match, r.AliasOnly, compileOpts...)
		if err != nil {
			return nil, &RuleError{
				Index:   i,
				ID:      r.ID,
				Field:   "match",
				Message: fmt.Sprintf("invalid template: %v", err),
				Cause:   err,
			}
		}

		cr := &compiledRule{index: i, id: r.ID, eventType: r.EventType, pattern: p}
		if r.When != "" {
			prog, err := expr.Compile(r.When, expr.AsBool(), expr.AllowUndefinedVariables())
			if err != nil {
				return nil, &RuleError{
					Index:   i,
					ID:      r.ID,
					Field:   "when",
					Message: fmt.Sprintf("invalid condition: %v", err),
					Cause:   err,
				}
			}
			cr.when = prog
		}
		cfg.logger.Debug("compiled rule",
			"id", r.ID,
			"event_type", r.EventType,
			"engine", p.Engine().String(),
			"fields", p.Fields(),
		)
		compiled = append(compiled, cr)
	}

	return &RuleParser{rules: compiled, logger: cfg.logger}, nil
}

// NewRuleParserFromFile loads a rule file and compiles it in one step.
func NewRuleParserFromFile(path string, opts ...Option) (*RuleParser, error) {
	rf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewRuleParser(rf, opts...)
}

// Len returns the number of rules.
func (p *RuleParser) Len() int { return len(p.rules) }

// ParseLine implements extract.Parser. Rules are tried in file order and
// every matching rule contributes one event.
//
// Matched is true when any rule's template matched, even if its condition
// then rejected the line. A rule that fails at match time (a field that does
// not convert, a condition that errors) is skipped; the failures are joined
// and returned together with the events of the other rules.
func (p *RuleParser) ParseLine(ctx context.Context, line string) (extract.Result, error) {
	var events []extract.Event
	var errs []error
	matched := false

	for _, r := range p.rules {
		if err := ctx.Err(); err != nil {
			return extract.Result{Events: events, Matched: matched}, err
		}

		fields, ok, err := r.pattern.ParseMatch(line)
		if err != nil {
			errs = append(errs, r.errorf("match", err, "%v", err))
			continue
		}
		if !ok {
			continue
		}
		matched = true

		if r.when != nil {
			pass, err := r.eval(fields)
			if err != nil {
				errs = append(errs, r.errorf("when", err, "condition failed: %v", err))
				continue
			}
			if !pass {
				p.logger.Debug("rule condition rejected line", "id", r.id)
				continue
			}
		}
		events = append(events, extract.NewEvent(r.eventType, r.id, fields))
	}

	res := extract.Result{Events: events, Matched: matched}
	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}

func (r *compiledRule) eval(fields map[string]grok.Value) (bool, error) {
	env := make(map[string]any, len(fields))
	for k, v := range fields {
		env[k] = v.Interface()
	}
	out, err := expr.Run(r.when, env)
	if err != nil {
		return false, err
	}
	pass, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition returned %T, want bool", out)
	}
	return pass, nil
}

func (r *compiledRule) errorf(field string, cause error, format string, args ...any) *RuleError {
	return &RuleError{
		Index:   r.index,
		ID:      r.id,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}
