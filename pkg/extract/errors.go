package extract

import (
	"errors"
	"fmt"

	"github.com/logfield/grok-go/internal/logfinder"
)

// Sentinel errors.
var (
	// ErrWatcherClosed is returned by Watch after Close.
	ErrWatcherClosed = errors.New("watcher closed")

	// ErrAlreadyWatching is returned by a second call to Watch.
	ErrAlreadyWatching = errors.New("already watching")

	// ErrNoLogFiles is reported when a watched directory holds no file
	// matching the glob.
	ErrNoLogFiles = logfinder.ErrNoLogFiles

	// ErrReplayLimitExceeded is reported when ReplayLastN would read more
	// than the configured byte limits.
	ErrReplayLimitExceeded = errors.New("replay limit exceeded")
)

// WatchOp names the watcher step that failed.
type WatchOp string

const (
	WatchOpFindLatest WatchOp = "find_latest"
	WatchOpTail       WatchOp = "tail"
	WatchOpRotation   WatchOp = "rotation"
	WatchOpReplay     WatchOp = "replay"
)

// WatchError reports a failure of the watcher itself, as opposed to a line
// that could not be parsed.
type WatchError struct {
	Op   WatchOp
	Path string // may be empty
	Err  error
}

func (e *WatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("watch %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("watch %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause of the error.
func (e *WatchError) Unwrap() error {
	return e.Err
}

// ParseError reports a line the parser failed on.
type ParseError struct {
	Source string
	LineNo int // 1-based; 0 when unknown
	Line   string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Source != "" && e.LineNo > 0:
		return fmt.Sprintf("%s:%d: %v", e.Source, e.LineNo, e.Err)
	case e.Source != "":
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("parse error: %v", e.Err)
	}
}

// Unwrap returns the underlying cause of the error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
