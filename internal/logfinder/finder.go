// Package logfinder locates the log file to follow inside a directory.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DefaultGlob matches the files considered when following a directory.
const DefaultGlob = "*.log"

// Sentinel errors.
var (
	ErrNotDirectory = errors.New("not a directory")
	ErrNoLogFiles   = errors.New("no log files found")
)

// ResolveDir checks that dir is a directory and returns it with symlinks
// resolved, so later comparisons of file paths are stable.
func ResolveDir(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", ErrNotDirectory
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

// logCandidate holds a log file path and its cached modification time.
// This avoids race conditions where files are deleted between stat and sort.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatest returns the most recently modified regular file in dir whose
// name matches glob (DefaultGlob when empty). Ties are broken by name so the
// result is deterministic.
//
// Returns ErrNoLogFiles if nothing matches.
func FindLatest(dir, glob string) (string, error) {
	if glob == "" {
		glob = DefaultGlob
	}
	matches, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return "", fmt.Errorf("globbing log files: %w", err)
	}

	// Stat files once and cache results.
	candidates := make([]logCandidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil {
			// Deleted since Glob, or unreadable.
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, logCandidate{
			path:    m,
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modTime != candidates[j].modTime {
			return candidates[i].modTime > candidates[j].modTime
		}
		return candidates[i].path > candidates[j].path
	})

	return candidates[0].path, nil
}
