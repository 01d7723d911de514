package extract

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// ParseReader parses r line by line and yields the events p produces.
// Parse failures are yielded as *ParseError values with a zero Event;
// iteration continues unless WithStopOnError is set. A read failure is
// yielded last and ends the iteration.
//
// source is copied to Event.Source and ParseError.Source.
//
// Example:
//
//	for ev, err := range extract.ParseReader(ctx, os.Stdin, "stdin", parser) {
//	    if err != nil {
//	        log.Print(err)
//	        continue
//	    }
//	    fmt.Println(ev.Type, ev.Fields)
//	}
func ParseReader(ctx context.Context, r io.Reader, source string, p Parser, opts ...ParseOption) iter.Seq2[Event, error] {
	cfg := applyParseOptions(opts)

	return func(yield func(Event, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, min(64*1024, cfg.maxLineBytes)), cfg.maxLineBytes)

		lineNo := 0
		for sc.Scan() {
			if err := ctx.Err(); err != nil {
				yield(Event{}, err)
				return
			}
			lineNo++
			line := strings.TrimSuffix(sc.Text(), "\r")

			res, err := p.ParseLine(ctx, line)
			// Events come before the error so partial results from
			// ChainContinueOnError are not lost.
			for _, ev := range res.Events {
				if !cfg.filter.Allows(ev.Type) {
					continue
				}
				ev.Source = source
				ev.Line = lineNo
				if cfg.includeRawLine {
					ev.RawLine = line
				}
				if !yield(ev, nil) {
					return
				}
			}
			if err != nil {
				if !yield(Event{}, &ParseError{Source: source, LineNo: lineNo, Line: line, Err: err}) {
					return
				}
				if cfg.stopOnError {
					return
				}
			}
		}
		if err := sc.Err(); err != nil {
			yield(Event{}, fmt.Errorf("reading %s: %w", source, err))
		}
	}
}

// ParseFile is ParseReader over the file at path. Event.Source is path.
func ParseFile(ctx context.Context, path string, p Parser, opts ...ParseOption) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Event{}, err)
			return
		}
		defer f.Close()

		for ev, err := range ParseReader(ctx, f, path, p, opts...) {
			if !yield(ev, err) {
				return
			}
		}
	}
}
