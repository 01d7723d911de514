package extract

import (
	"context"

	"github.com/logfield/grok-go/pkg/grok"
)

// PatternParser emits one event for every line a single compiled pattern
// matches.
type PatternParser struct {
	pattern   *grok.Pattern
	eventType string
}

// FromPattern returns a parser for p. Events carry eventType as their type
// and the pattern template as their rule.
func FromPattern(p *grok.Pattern, eventType string) *PatternParser {
	return &PatternParser{pattern: p, eventType: eventType}
}

// ParseLine implements Parser. A field that fails type conversion fails the
// line with the *grok.ConversionError.
func (pp *PatternParser) ParseLine(ctx context.Context, line string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	fields, ok, err := pp.pattern.ParseMatch(line)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, nil
	}
	return Result{
		Events:  []Event{NewEvent(pp.eventType, pp.pattern.Template(), fields)},
		Matched: true,
	}, nil
}

// NewEvent builds an event from parsed fields. An empty field map is stored
// as nil.
func NewEvent(eventType, rule string, fields map[string]grok.Value) Event {
	if len(fields) == 0 {
		fields = nil
	}
	return Event{Type: eventType, Rule: rule, Fields: fields}
}
