package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/logfield/grok-go/internal/logfinder"
	"github.com/logfield/grok-go/internal/tailer"
)

// watcherErrBuffer is the buffer size for the error channel.
const watcherErrBuffer = 16

// Watcher follows a log file, or the newest matching file in a directory,
// and parses every new line.
type Watcher struct {
	cfg    watchConfig // immutable after creation
	parser Parser
	path   string
	isDir  bool
	log    *slog.Logger

	mu       sync.Mutex
	closed   bool
	watching bool
	cancel   context.CancelFunc
	doneCh   chan struct{}
}

// NewWatcher validates the options and the path. path is either a file,
// which is followed across truncation and re-creation, or a directory, in
// which the newest file matching the glob is followed and a newer file
// replaces it when one appears.
//
// NewWatcher does not start any goroutine.
func NewWatcher(path string, p Parser, opts ...WatchOption) (*Watcher, error) {
	if p == nil {
		return nil, errors.New("parser is nil")
	}
	cfg := applyWatchOptions(opts)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("watch path: %w", err)
	}
	w := &Watcher{cfg: *cfg, parser: p, path: path, log: cfg.logger}
	if info.IsDir() {
		resolved, err := logfinder.ResolveDir(path)
		if err != nil {
			return nil, fmt.Errorf("watch path: %w", err)
		}
		w.path = resolved
		w.isDir = true
	}
	return w, nil
}

// Watch starts watching and returns the event and error channels. Both are
// closed when ctx is cancelled, Close is called, or a fatal error occurs.
// Watch can only be called once per Watcher.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, <-chan error, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, nil, ErrWatcherClosed
	}
	if w.watching {
		return nil, nil, ErrAlreadyWatching
	}
	w.watching = true

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.doneCh = make(chan struct{})

	eventCh := make(chan Event)
	errCh := make(chan error, watcherErrBuffer)
	go w.run(ctx, eventCh, errCh)

	return eventCh, errCh, nil
}

// Close stops the watcher and waits for its goroutine to exit. Safe to call
// multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
	}
	doneCh := w.doneCh
	w.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}
	return nil
}

// Watch creates a Watcher and starts it. The watcher stops when ctx is
// cancelled.
func Watch(ctx context.Context, path string, p Parser, opts ...WatchOption) (<-chan Event, <-chan error, error) {
	w, err := NewWatcher(path, p, opts...)
	if err != nil {
		return nil, nil, err
	}
	return w.Watch(ctx)
}

func (w *Watcher) run(ctx context.Context, eventCh chan<- Event, errCh chan<- error) {
	defer close(w.doneCh)
	defer close(eventCh)
	defer close(errCh)

	file, err := w.locate(ctx, errCh)
	if err != nil {
		return
	}
	w.log.Debug("following file", "path", file)

	cfg := tailer.DefaultConfig()
	cfg.Poll = w.cfg.poll
	cfg.FromStart = w.cfg.replay == ReplayFromStart

	if w.cfg.replay == ReplayLastN && w.cfg.lastN > 0 {
		w.log.Debug("replaying last lines", "n", w.cfg.lastN, "path", file)
		if err := w.replayLastN(ctx, file, eventCh, errCh); err != nil {
			sendError(ctx, errCh, &WatchError{Op: WatchOpReplay, Path: file, Err: err})
		}
	}

	t, err := tailer.New(ctx, file, cfg)
	if err != nil {
		sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: file, Err: err})
		return
	}
	defer func() { _ = t.Stop() }()

	// Line numbers are only known when reading from the start of a file.
	counting := cfg.FromStart
	lineNo := 0

	var rotation <-chan time.Time
	if w.isDir {
		ticker := time.NewTicker(w.cfg.pollInterval)
		defer ticker.Stop()
		rotation = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-t.Lines():
			if !ok {
				return
			}
			n := 0
			if counting {
				lineNo++
				n = lineNo
			}
			w.processLine(ctx, file, n, line, eventCh, errCh)
		case err, ok := <-t.Errors():
			if !ok {
				return
			}
			sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: file, Err: err})
		case <-rotation:
			newest, err := logfinder.FindLatest(w.path, w.cfg.glob)
			if err != nil {
				sendError(ctx, errCh, &WatchError{Op: WatchOpRotation, Err: err})
				continue
			}
			if newest == file {
				continue
			}
			w.log.Debug("newer file detected", "from", file, "to", newest)
			_ = t.Stop()
			next := tailer.DefaultConfig()
			next.Poll = w.cfg.poll
			next.FromStart = true
			nt, err := tailer.New(ctx, newest, next)
			if err != nil {
				sendError(ctx, errCh, &WatchError{Op: WatchOpTail, Path: newest, Err: err})
				return
			}
			t = nt
			file = newest
			counting = true
			lineNo = 0
		}
	}
}

// locate returns the file to follow, waiting for one to appear in a
// directory when WithWaitForLogs is set. Failures are sent to errCh.
func (w *Watcher) locate(ctx context.Context, errCh chan<- error) (string, error) {
	if !w.isDir {
		return w.path, nil
	}

	file, err := logfinder.FindLatest(w.path, w.cfg.glob)
	if err == nil {
		return file, nil
	}
	if !errors.Is(err, ErrNoLogFiles) || !w.cfg.waitForLogs {
		sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Path: w.path, Err: err})
		return "", err
	}

	w.log.Debug("no matching files, waiting", "dir", w.path, "glob", w.cfg.glob, "poll_interval", w.cfg.pollInterval)
	ticker := time.NewTicker(w.cfg.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			err := ctx.Err()
			select {
			case errCh <- &WatchError{Op: WatchOpFindLatest, Path: w.path, Err: err}:
			default:
			}
			return "", err
		case <-ticker.C:
			file, err := logfinder.FindLatest(w.path, w.cfg.glob)
			if err == nil {
				return file, nil
			}
			if !errors.Is(err, ErrNoLogFiles) {
				sendError(ctx, errCh, &WatchError{Op: WatchOpFindLatest, Path: w.path, Err: err})
				return "", err
			}
		}
	}
}

func (w *Watcher) replayLastN(ctx context.Context, file string, eventCh chan<- Event, errCh chan<- error) error {
	lines, err := readLastLines(file, w.cfg.lastN, w.cfg.maxReplayBytes, w.cfg.maxReplayLineBytes)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.processLine(ctx, file, 0, line, eventCh, errCh)
	}
	return nil
}

// processLine parses line and sends its events, then its error if any, so
// partial results from ChainContinueOnError are not lost.
func (w *Watcher) processLine(ctx context.Context, file string, lineNo int, line string, eventCh chan<- Event, errCh chan<- error) {
	res, err := w.parser.ParseLine(ctx, line)

	for _, ev := range res.Events {
		if !w.cfg.filter.Allows(ev.Type) {
			continue
		}
		ev.Source = file
		ev.Line = lineNo
		if w.cfg.includeRawLine {
			ev.RawLine = line
		}
		select {
		case eventCh <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err != nil {
		sendError(ctx, errCh, &ParseError{Source: file, LineNo: lineNo, Line: line, Err: err})
	}
}

// sendError sends err without blocking. Errors are dropped only when the
// buffer is full.
func sendError(ctx context.Context, errCh chan<- error, err error) {
	if err == nil {
		return
	}
	select {
	case errCh <- err:
	case <-ctx.Done():
	default:
	}
}
