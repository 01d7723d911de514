package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/logfield/grok-go/pkg/extract"
)

type tailOptions struct {
	pattern      string
	eventType    string
	glob         string
	types        []string
	excludeTypes []string
	includeRaw   bool
	replayLast   int
	poll         bool
	pollInterval time.Duration
	wait         bool
}

func newTailCmd(c *cli) *cobra.Command {
	opts := &tailOptions{}

	cmd := &cobra.Command{
		Use:   "tail [PATTERN] FILE|DIR",
		Short: "Follow a log file and output events",
		Long: `Follow a log file in real-time and output an event for every line
that matches.

Given a directory, the newest file matching --glob is followed and the
watcher switches to newer files as they appear.

Events are output as JSON Lines by default (one JSON object per line),
which makes it easy to process with tools like jq.

Examples:
  # Follow a file with an inline template
  grok tail '%{SYSLOGBASE} %{GREEDYDATA:message}' /var/log/syslog

  # Newest *.log in a directory, with rule files
  grok tail --rules rules.yaml /var/log/app

  # Replay the last 100 lines before following
  grok tail --rules rules.yaml --replay-last 100 app.log

  # Replay from start of log file
  grok tail --rules rules.yaml --replay-last 0 app.log

  # Pipe to jq for filtering
  grok tail --rules rules.yaml app.log | jq 'select(.type == "ssh_login_failed")'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runTail(ctx, cmd, c, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.pattern, "pattern", "e", "", "Inline template (instead of the first argument)")
	f.StringVar(&opts.eventType, "event-type", defaultEventType, "Event type for lines matched by the inline template")
	f.BoolP("alias-only", "a", false, "Capture only aliased placeholders")
	f.StringVarP(&opts.glob, "glob", "g", "", "File name pattern when following a directory (default \"*.log\")")
	f.StringSliceVarP(&opts.types, "types", "t", nil, "Event types to show (comma-separated)")
	f.StringSliceVar(&opts.excludeTypes, "exclude-types", nil, "Event types to hide (comma-separated)")
	f.BoolVar(&opts.includeRaw, "raw", false, "Include raw log lines in output")
	f.BoolVar(&opts.wait, "wait", false, "Wait for a matching file to appear in the directory")

	// Replay options
	f.IntVar(&opts.replayLast, "replay-last", -1,
		"Replay last N lines before tailing (-1 = disabled, 0 = from start)")

	f.BoolVar(&opts.poll, "poll", false, "Poll for changes instead of using filesystem notifications")
	f.DurationVar(&opts.pollInterval, "poll-interval", 2*time.Second, "How often a directory is checked for newer files")

	return cmd
}

// tailSources splits args into the inline template and the watched path.
func tailSources(cfg *Config, opts *tailOptions, args []string) (template, path string, err error) {
	template = opts.pattern
	switch {
	case len(args) == 2 && template == "":
		return args[0], args[1], nil
	case len(args) == 2:
		return "", "", errors.New("pattern given both with -e and as an argument")
	case template == "" && len(cfg.RulesFiles) == 0:
		return "", "", errNoParser
	}
	return template, args[0], nil
}

// watchOptions builds the watcher options for opts.
func (opts *tailOptions) watchOptions(c *cli) []extract.WatchOption {
	wopts := []extract.WatchOption{
		extract.WithGlob(opts.glob),
		extract.WithPolling(opts.poll),
		extract.WithPollInterval(opts.pollInterval),
		extract.WithWaitForLogs(opts.wait),
		extract.WithIncludeRawLine(opts.includeRaw),
		extract.WithFilter(opts.types, opts.excludeTypes),
		extract.WithLogger(c.logger),
	}
	switch {
	case opts.replayLast == 0:
		wopts = append(wopts, extract.WithReplayFromStart())
	case opts.replayLast > 0:
		wopts = append(wopts, extract.WithReplayLastN(opts.replayLast))
	}
	return wopts
}

func runTail(ctx context.Context, cmd *cobra.Command, c *cli, opts *tailOptions, args []string) error {
	if c.cfg.Format == "table" {
		return errors.New("table format is not supported by tail")
	}

	template, path, err := tailSources(c.cfg, opts, args)
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

	// Create watcher (validates options and path)
	watcher, err := extract.NewWatcher(path, parser, opts.watchOptions(c)...)
	if err != nil {
		return err
	}
	defer watcher.Close()

	events, errs, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	// lastWatchErr is returned if the watcher stops on its own.
	var lastWatchErr error
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if err := drainErrors(errs, c); err != nil {
					lastWatchErr = err
				}
				if ctx.Err() != nil {
					return nil
				}
				return lastWatchErr
			}
			if err := em.Emit(ev); err != nil {
				return fmt.Errorf("output error: %w", err)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if logTailError(c, err) {
				lastWatchErr = err
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// logTailError logs err and reports whether it came from the watcher
// itself rather than from a line.
func logTailError(c *cli, err error) bool {
	var we *extract.WatchError
	if errors.As(err, &we) {
		c.logger.Error("watch error", "op", we.Op, "path", we.Path, "error", we.Err)
		return true
	}
	c.logger.Warn("parse error", "error", err)
	return false
}

// drainErrors logs errors left after the event channel closed and returns
// the last watcher failure among them.
func drainErrors(errs <-chan error, c *cli) error {
	var last error
	if errs == nil {
		return nil
	}
	for err := range errs {
		if logTailError(c, err) {
			last = err
		}
	}
	return last
}
