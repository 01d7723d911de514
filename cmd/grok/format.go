package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/logfield/grok-go/pkg/extract"
	"github.com/logfield/grok-go/pkg/grok"
)

// validFormats lists all valid output formats.
var validFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
	"table":  true,
}

func sortedFormats() []string {
	names := make([]string, 0, len(validFormats))
	for f := range validFormats {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}

// emitter writes events in one output format. Emit may be called from
// several goroutines.
type emitter interface {
	Emit(ev extract.Event) error
	// Flush writes anything buffered. Only the table format buffers.
	Flush() error
}

// newEmitter returns the emitter for format.
func newEmitter(format string, out io.Writer, colored bool) (emitter, error) {
	switch format {
	case "jsonl":
		return &jsonEmitter{out: out}, nil
	case "pretty":
		return newPrettyEmitter(out, colored), nil
	case "table":
		return &tableEmitter{out: out}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// colorEnabled resolves a color mode against the output writer. "auto"
// colors only terminals and honors NO_COLOR.
func colorEnabled(mode string, out io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// jsonEmitter writes events as JSON Lines.
type jsonEmitter struct {
	mu  sync.Mutex
	out io.Writer
}

func (e *jsonEmitter) Emit(ev extract.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = fmt.Fprintln(e.out, string(data))
	return err
}

func (e *jsonEmitter) Flush() error { return nil }

// prettyEmitter writes one human-readable line per event:
//
//	source:line type [rule] key=value ...
type prettyEmitter struct {
	mu  sync.Mutex
	out io.Writer

	locStyle  *color.Color
	typeStyle *color.Color
	ruleStyle *color.Color
	keyStyle  *color.Color
}

func newPrettyEmitter(out io.Writer, colored bool) *prettyEmitter {
	e := &prettyEmitter{
		out:       out,
		locStyle:  color.New(color.FgHiBlack),
		typeStyle: color.New(color.Bold, color.FgCyan),
		ruleStyle: color.New(color.FgMagenta),
		keyStyle:  color.New(color.FgHiBlue),
	}
	for _, c := range []*color.Color{e.locStyle, e.typeStyle, e.ruleStyle, e.keyStyle} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return e
}

func (e *prettyEmitter) Emit(ev extract.Event) error {
	var sb strings.Builder
	if loc := location(ev); loc != "" {
		sb.WriteString(e.locStyle.Sprint(loc))
		sb.WriteByte(' ')
	}
	sb.WriteString(e.typeStyle.Sprint(ev.Type))
	if ev.Rule != "" && ev.Rule != ev.Type {
		sb.WriteString(" [")
		sb.WriteString(e.ruleStyle.Sprint(ev.Rule))
		sb.WriteByte(']')
	}
	for _, k := range sortedKeys(ev.Fields) {
		sb.WriteByte(' ')
		sb.WriteString(e.keyStyle.Sprint(quoteIfNeeded(k)))
		sb.WriteByte('=')
		sb.WriteString(formatValue(ev.Fields[k]))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := fmt.Fprintln(e.out, sb.String())
	return err
}

func (e *prettyEmitter) Flush() error { return nil }

// tableEmitter buffers events and renders them as one table on Flush.
type tableEmitter struct {
	mu   sync.Mutex
	out  io.Writer
	rows [][]string
}

func (e *tableEmitter) Emit(ev extract.Event) error {
	row := []string{location(ev), ev.Type, ev.Rule, formatData(ev.Fields)}
	e.mu.Lock()
	e.rows = append(e.rows, row)
	e.mu.Unlock()
	return nil
}

func (e *tableEmitter) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.rows) == 0 {
		return nil
	}
	err := renderTable(e.out, []string{"Source", "Type", "Rule", "Fields"}, e.rows)
	e.rows = nil
	return err
}

// renderTable prints rows as a left-aligned table.
func renderTable(out io.Writer, headers []string, rows [][]string) error {
	table := tablewriter.NewTable(out)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Header.Alignment.Global = tw.AlignLeft
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

// location formats the event origin as source:line, omitting unknown parts.
func location(ev extract.Event) string {
	switch {
	case ev.Source == "" && ev.Line == 0:
		return ""
	case ev.Line == 0:
		return ev.Source
	case ev.Source == "":
		return strconv.Itoa(ev.Line)
	}
	return ev.Source + ":" + strconv.Itoa(ev.Line)
}

func sortedKeys(fields map[string]grok.Value) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatValue prints typed values bare and quotes strings only when needed.
func formatValue(v grok.Value) string {
	if v.Kind() == grok.KindString {
		return quoteIfNeeded(v.Str())
	}
	return v.String()
}

// formatData formats fields as sorted key=value pairs.
func formatData(fields map[string]grok.Value) string {
	if len(fields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		parts = append(parts, quoteIfNeeded(k)+"="+formatValue(fields[k]))
	}
	return strings.Join(parts, " ")
}

// quoteIfNeeded quotes a value if it contains special characters or control characters.
// Returns the value unchanged if no quoting is needed.
func quoteIfNeeded(v string) string {
	if v == "" {
		return `""`
	}

	needsQuote := false
	for _, c := range v {
		// space, equals, quote, backslash, or any control character (< 0x20 or DEL 0x7F)
		if c == ' ' || c == '=' || c == '"' || c == '\\' || c < 0x20 || c == 0x7F {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return v
	}

	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range v {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c == 0x7F:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteRune(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
