// Package tailer follows a growing file line by line.
package tailer

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/nxadm/tail"
)

// Config configures a Tailer.
type Config struct {
	// FromStart reads the file from the beginning instead of the end.
	FromStart bool

	// Poll uses stat polling instead of inotify-style notifications.
	// Useful on network filesystems and in tests.
	Poll bool

	// ReOpen reopens the file when it is truncated or recreated.
	ReOpen bool
}

// DefaultConfig returns the configuration used by `tail -F`: start at the
// end and reopen on rotation.
func DefaultConfig() Config {
	return Config{ReOpen: true}
}

// Tailer delivers the lines appended to a file.
type Tailer struct {
	t      *tail.Tail
	lines  chan string
	errs   chan error
	cancel context.CancelFunc
	done   chan struct{}

	stopOnce sync.Once
	stopErr  error
}

// New starts following path. The file must exist. Lines and Errors are
// closed after Stop is called or ctx is cancelled; Stop must be called in
// either case to release the underlying watcher.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	whence := io.SeekEnd
	if cfg.FromStart {
		whence = io.SeekStart
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    cfg.ReOpen,
		MustExist: true,
		Poll:      cfg.Poll,
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	tl := &Tailer{
		t:      t,
		lines:  make(chan string),
		errs:   make(chan error, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go tl.run(ctx)
	return tl, nil
}

func (tl *Tailer) run(ctx context.Context) {
	defer close(tl.done)
	defer close(tl.errs)
	defer close(tl.lines)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-tl.t.Lines:
			if !ok {
				if err := tl.t.Wait(); err != nil {
					select {
					case tl.errs <- err:
					default:
					}
				}
				return
			}
			if line.Err != nil {
				select {
				case tl.errs <- line.Err:
				case <-ctx.Done():
					return
				}
				continue
			}
			select {
			case tl.lines <- strings.TrimSuffix(line.Text, "\r"):
			case <-ctx.Done():
				return
			}
		}
	}
}

// Lines returns the channel of lines, without trailing newline.
func (tl *Tailer) Lines() <-chan string { return tl.lines }

// Errors returns the channel of read errors.
func (tl *Tailer) Errors() <-chan error { return tl.errs }

// Stop stops following the file and waits for the delivery goroutine to
// exit. Safe to call more than once.
func (tl *Tailer) Stop() error {
	tl.stopOnce.Do(func() {
		tl.cancel()
		tl.stopErr = tl.t.Stop()
		tl.t.Cleanup()
		<-tl.done
	})
	return tl.stopErr
}
