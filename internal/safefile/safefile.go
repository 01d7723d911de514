// Package safefile provides security-hardened file operations.
package safefile

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotRegularFile is returned when attempting to open a file that is not a regular file.
// This includes symlinks, FIFOs, devices, sockets, and directories.
var ErrNotRegularFile = errors.New("not a regular file")

// ErrTooLarge is returned by ReadRegular when the file exceeds the size limit.
var ErrTooLarge = errors.New("file too large")

// OpenRegular opens a file and verifies it is a regular file.
// This mitigates TOCTOU (time-of-check-time-of-use) race conditions where a file
// could be replaced with a symlink or special file between stat and open operations.
//
// The function:
//  1. Uses os.Lstat() to check the path without following symlinks
//  2. Opens the file
//  3. Stats the file descriptor to verify it's the same file
//
// Returns:
//   - (*os.File, os.FileInfo, nil) on success
//   - (nil, nil, error) on failure (file closed automatically)
//
// The caller must close the returned file when done.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	// Catches a file replaced between Lstat and Open.
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}

	return f, info, nil
}

// ReadRegular reads a whole regular file of at most maxSize bytes.
// Errors never contain the path (see SanitizePathError), so they are safe to
// show to users of a tool that reads files named in configuration.
func ReadRegular(path string, maxSize int64) ([]byte, error) {
	f, info, err := OpenRegular(path)
	if err != nil {
		return nil, SanitizePathError(err)
	}
	defer f.Close()

	if info.Size() > maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), maxSize)
	}

	// Read one extra byte to notice a file that grew after Stat.
	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, SanitizePathError(err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxSize)
	}
	return data, nil
}

// SanitizePathError removes the path from an *os.PathError, keeping the
// operation and the underlying error.
func SanitizePathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Errorf("%s: %w", pathErr.Op, pathErr.Err)
	}
	return err
}
