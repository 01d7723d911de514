package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func receive(t *testing.T, tl *Tailer) string {
	t.Helper()
	select {
	case line, ok := <-tl.Lines():
		if !ok {
			t.Fatal("lines channel closed")
		}
		return line
	case err := <-tl.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for line")
	}
	return ""
}

func TestTailer_FromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("first\r\nsecond\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.FromStart = true
	cfg.Poll = true
	tl, err := New(context.Background(), path, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tl.Stop()

	if got := receive(t, tl); got != "first" {
		t.Errorf("line 1 = %q, want %q", got, "first")
	}
	if got := receive(t, tl); got != "second" {
		t.Errorf("line 2 = %q, want %q", got, "second")
	}
}

func TestTailer_FollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("old line\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Poll = true
	tl, err := New(context.Background(), path, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tl.Stop()

	// Give the poller time to settle at the end of the file.
	time.Sleep(300 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString("new line\n"); err != nil {
		t.Fatal(err)
	}

	if got := receive(t, tl); got != "new line" {
		t.Errorf("got %q, want %q", got, "new line")
	}
}

func TestTailer_MissingFile(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing.log"), DefaultConfig())
	if err == nil {
		t.Fatal("New() expected error for missing file")
	}
}

func TestTailer_StopClosesChannels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Poll = true
	tl, err := New(context.Background(), path, cfg)
	if err != nil {
		t.Fatal(err)
	}
	_ = tl.Stop()
	_ = tl.Stop()

	select {
	case _, ok := <-tl.Lines():
		if ok {
			t.Error("expected lines channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("lines channel not closed after Stop")
	}
}

func TestTailer_ContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cfg := DefaultConfig()
	cfg.Poll = true
	tl, err := New(ctx, path, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer tl.Stop()

	cancel()
	select {
	case _, ok := <-tl.Lines():
		if ok {
			t.Error("expected lines channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("lines channel not closed after cancel")
	}
}
