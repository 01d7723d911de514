package extract

import "github.com/logfield/grok-go/pkg/grok"

// Event is one structured record extracted from a log line.
type Event struct {
	// Type is the event type assigned by the parser that matched.
	Type string `json:"type"`

	// Rule identifies the rule or pattern that produced the event.
	Rule string `json:"rule,omitempty"`

	// Fields holds the extracted values. Nil when the pattern has no output
	// fields.
	Fields map[string]grok.Value `json:"fields,omitempty"`

	// Source and Line locate the input line. Parsers leave them empty; the
	// caller reading the input fills them in.
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`

	// RawLine is the original input line, set by ParseReader and Watcher
	// when asked to include it.
	RawLine string `json:"raw_line,omitempty"`
}
