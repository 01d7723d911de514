package extract

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/logfield/grok-go/internal/logfinder"
)

// ReplayMode specifies how a Watcher handles lines already in the file.
type ReplayMode int

const (
	// ReplayNone only watches for new lines (default, tail -f behavior).
	ReplayNone ReplayMode = iota
	// ReplayFromStart reads from the beginning of the file.
	ReplayFromStart
	// ReplayLastN reads the last N lines before tailing.
	ReplayLastN
)

// DefaultMaxReplayLastN is the default maximum lines for ReplayLastN mode.
const DefaultMaxReplayLastN = 10000

// discardLogger drops all output.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// WatchOption configures a Watcher using the functional options pattern.
type WatchOption func(*watchConfig)

type watchConfig struct {
	glob               string
	pollInterval       time.Duration
	poll               bool
	includeRawLine     bool
	replay             ReplayMode
	lastN              int
	maxReplayLines     int
	maxReplayBytes     int
	maxReplayLineBytes int
	waitForLogs        bool
	logger             *slog.Logger
	filter             *compiledFilter
}

func defaultWatchConfig() *watchConfig {
	return &watchConfig{
		glob:               logfinder.DefaultGlob,
		pollInterval:       2 * time.Second,
		maxReplayLines:     DefaultMaxReplayLastN,
		maxReplayBytes:     10 * 1024 * 1024,
		maxReplayLineBytes: 512 * 1024,
	}
}

func applyWatchOptions(opts []WatchOption) *watchConfig {
	cfg := defaultWatchConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger
	}
	return cfg
}

func (c *watchConfig) validate() error {
	if c.replay == ReplayLastN {
		if c.lastN < 0 {
			return fmt.Errorf("replay LastN must be non-negative, got %d", c.lastN)
		}
		maxLines := c.maxReplayLines
		if maxLines == 0 {
			maxLines = DefaultMaxReplayLastN
		}
		if maxLines > 0 && c.lastN > maxLines {
			return fmt.Errorf("replay LastN (%d) exceeds maximum of %d", c.lastN, maxLines)
		}
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.pollInterval)
	}
	if c.maxReplayBytes < 0 {
		return fmt.Errorf("maxReplayBytes must be non-negative, got %d", c.maxReplayBytes)
	}
	if c.maxReplayLineBytes < 0 {
		return fmt.Errorf("maxReplayLineBytes must be non-negative, got %d", c.maxReplayLineBytes)
	}
	return nil
}

// WithGlob sets the file name pattern used when watching a directory.
// Default: "*.log".
func WithGlob(glob string) WatchOption {
	return func(c *watchConfig) {
		if glob != "" {
			c.glob = glob
		}
	}
}

// WithPollInterval sets how often a watched directory is checked for a
// newer file. Default: 2 seconds.
func WithPollInterval(interval time.Duration) WatchOption {
	return func(c *watchConfig) {
		c.pollInterval = interval
	}
}

// WithPolling makes the tailer stat the file periodically instead of relying
// on filesystem notifications. Needed on some network filesystems.
func WithPolling(poll bool) WatchOption {
	return func(c *watchConfig) {
		c.poll = poll
	}
}

// WithWaitForLogs makes a directory watcher wait for a matching file to
// appear instead of failing with ErrNoLogFiles.
func WithWaitForLogs(wait bool) WatchOption {
	return func(c *watchConfig) {
		c.waitForLogs = wait
	}
}

// WithIncludeRawLine includes the original line in Event.RawLine.
// Default: false.
func WithIncludeRawLine(include bool) WatchOption {
	return func(c *watchConfig) {
		c.includeRawLine = include
	}
}

// WithReplayFromStart reads the file from the beginning.
func WithReplayFromStart() WatchOption {
	return func(c *watchConfig) {
		c.replay = ReplayFromStart
	}
}

// WithReplayLastN reads the last n non-empty lines before tailing.
func WithReplayLastN(n int) WatchOption {
	return func(c *watchConfig) {
		c.replay = ReplayLastN
		c.lastN = n
	}
}

// WithMaxReplayLines sets the maximum lines for ReplayLastN mode.
// 0 uses the default (10000); -1 disables the limit.
func WithMaxReplayLines(max int) WatchOption {
	return func(c *watchConfig) {
		c.maxReplayLines = max
	}
}

// WithMaxReplayBytes sets the maximum total bytes read during replay.
// Default is 10MB; 0 disables the limit.
func WithMaxReplayBytes(max int) WatchOption {
	return func(c *watchConfig) {
		c.maxReplayBytes = max
	}
}

// WithMaxReplayLineBytes sets the maximum bytes per line during replay.
// Default is 512KB; 0 disables the limit.
func WithMaxReplayLineBytes(max int) WatchOption {
	return func(c *watchConfig) {
		c.maxReplayLineBytes = max
	}
}

// WithLogger sets a logger for debug output. Default: discard.
func WithLogger(logger *slog.Logger) WatchOption {
	return func(c *watchConfig) {
		c.logger = logger
	}
}

// WithFilter keeps only events whose type is in include (all types when
// include is empty) and not in exclude.
func WithFilter(include, exclude []string) WatchOption {
	return func(c *watchConfig) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// ParseOption configures ParseReader and ParseFile.
type ParseOption func(*parseConfig)

type parseConfig struct {
	filter         *compiledFilter
	includeRawLine bool
	stopOnError    bool
	maxLineBytes   int
}

// DefaultMaxLineBytes is the longest line ParseReader accepts by default.
const DefaultMaxLineBytes = 1024 * 1024

func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{maxLineBytes: DefaultMaxLineBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.maxLineBytes <= 0 {
		cfg.maxLineBytes = DefaultMaxLineBytes
	}
	return cfg
}

// WithParseFilter keeps only events whose type is in include (all types
// when include is empty) and not in exclude.
func WithParseFilter(include, exclude []string) ParseOption {
	return func(c *parseConfig) {
		c.filter = newCompiledFilter(include, exclude)
	}
}

// WithParseIncludeRawLine includes the original line in Event.RawLine.
func WithParseIncludeRawLine(include bool) ParseOption {
	return func(c *parseConfig) {
		c.includeRawLine = include
	}
}

// WithStopOnError stops iteration at the first parse error instead of
// yielding it and continuing.
func WithStopOnError(stop bool) ParseOption {
	return func(c *parseConfig) {
		c.stopOnError = stop
	}
}

// WithMaxLineBytes sets the longest accepted input line.
func WithMaxLineBytes(n int) ParseOption {
	return func(c *parseConfig) {
		c.maxLineBytes = n
	}
}
