package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/logfield/grok-go/pkg/extract"
)

// stdinName selects standard input as a match source.
const stdinName = "-"

type matchOptions struct {
	pattern      string
	eventType    string
	types        []string
	excludeTypes []string
	includeRaw   bool
	strict       bool
	jobs         int
}

func newMatchCmd(c *cli) *cobra.Command {
	opts := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match [PATTERN] [FILE...]",
		Short: "Extract fields from log files or stdin",
		Long: `Match every line of the given files (or stdin) against a grok
template and print one event per match.

Without --rules the first argument is the template. With rule files
configured every argument is a file; -e adds an inline template on top of
the rules. Use "-" to read stdin explicitly.

Examples:
  # Fields of a syslog line
  echo 'Oct 11 22:14:15 host su[230]: ok' | grok match '%{SYSLOGLINE}'

  # Only aliased fields, typed
  grok match -a '%{IP:client} %{NUMBER:ms:int}ms' access.log

  # Rule files, several logs in parallel, as a table
  grok match --rules rules.yaml --format table /var/log/*.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runMatch(ctx, cmd, c, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.pattern, "pattern", "e", "", "Inline template (instead of the first argument)")
	f.StringVar(&opts.eventType, "event-type", defaultEventType, "Event type for lines matched by the inline template")
	f.BoolP("alias-only", "a", false, "Capture only aliased placeholders")
	f.StringSliceVarP(&opts.types, "types", "t", nil, "Event types to show (comma-separated)")
	f.StringSliceVar(&opts.excludeTypes, "exclude-types", nil, "Event types to hide (comma-separated)")
	f.BoolVar(&opts.includeRaw, "raw", false, "Include raw log lines in output")
	f.BoolVar(&opts.strict, "strict", false, "Stop at the first line that fails to parse")
	f.IntVarP(&opts.jobs, "jobs", "j", runtime.NumCPU(), "Files parsed concurrently")

	return cmd
}

// matchSources splits args into the inline template and input files.
func matchSources(cfg *Config, opts *matchOptions, args []string) (template string, files []string, err error) {
	template = opts.pattern
	files = args
	if template == "" && len(cfg.RulesFiles) == 0 {
		if len(args) == 0 {
			return "", nil, errNoParser
		}
		template, files = args[0], args[1:]
	}
	if len(files) == 0 {
		files = []string{stdinName}
	}
	return template, files, nil
}

func runMatch(ctx context.Context, cmd *cobra.Command, c *cli, opts *matchOptions, args []string) error {
	if opts.jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", opts.jobs)
	}

	template, files, err := matchSources(c.cfg, opts, args)
	if err != nil {
		return err
	}

	parser, err := buildParser(c.cfg, template, opts.eventType, c.logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	em, err := newEmitter(c.cfg.Format, out, colorEnabled(c.cfg.Color, out))
	if err != nil {
		return err
	}

	m := &matcher{
		parser: parser,
		stdin:  cmd.InOrStdin(),
		strict: opts.strict,
		cli:    c,
		parseOpts: []extract.ParseOption{
			extract.WithParseFilter(opts.types, opts.excludeTypes),
			extract.WithParseIncludeRawLine(opts.includeRaw),
			extract.WithStopOnError(opts.strict),
		},
	}

	if len(files) == 1 {
		err = m.run(ctx, files[0], em.Emit)
	} else {
		err = m.runAll(ctx, files, opts.jobs, em)
	}
	if err != nil {
		return err
	}

	c.logger.Debug("match finished",
		"files", len(files),
		"events", m.events.Load(),
		"parse_errors", m.parseErrors.Load(),
	)
	return em.Flush()
}

// matcher runs one parser over any number of inputs.
type matcher struct {
	parser    extract.Parser
	parseOpts []extract.ParseOption
	stdin     io.Reader
	strict    bool
	cli       *cli

	events      atomic.Int64
	parseErrors atomic.Int64
}

func (m *matcher) source(ctx context.Context, name string) iter.Seq2[extract.Event, error] {
	if name == stdinName {
		return extract.ParseReader(ctx, m.stdin, "stdin", m.parser, m.parseOpts...)
	}
	return extract.ParseFile(ctx, name, m.parser, m.parseOpts...)
}

// run parses one input and hands every event to emit. Parse errors are
// logged and skipped unless the matcher is strict.
func (m *matcher) run(ctx context.Context, name string, emit func(extract.Event) error) error {
	for ev, err := range m.source(ctx, name) {
		if err != nil {
			var pe *extract.ParseError
			if errors.As(err, &pe) {
				m.parseErrors.Add(1)
				if !m.strict {
					m.cli.logger.Warn("parse error", "source", pe.Source, "line", pe.LineNo, "error", pe.Err)
					continue
				}
			}
			return err
		}
		m.events.Add(1)
		if err := emit(ev); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
	return nil
}

// runAll parses files concurrently and emits their events in argument
// order once all of them are done.
func (m *matcher) runAll(ctx context.Context, files []string, jobs int, em emitter) error {
	results := make([][]extract.Event, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, name := range files {
		g.Go(func() error {
			return m.run(gctx, name, func(ev extract.Event) error {
				results[i] = append(results[i], ev)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, evs := range results {
		for _, ev := range evs {
			if err := em.Emit(ev); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
	}
	return nil
}
