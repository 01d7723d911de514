package extract

import (
	"bytes"
	"os"
	"slices"
)

const replayChunkSize = 4096

// readLastLines returns the last n non-empty lines of the file at path,
// oldest first, reading backwards in chunks. CRLF endings are stripped.
//
// maxBytes bounds the total bytes read and maxLineBytes a single line (0 =
// unlimited); exceeding either yields ErrReplayLimitExceeded.
func readLastLines(path string, n, maxBytes, maxLineBytes int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 || n <= 0 {
		return nil, nil
	}

	var newestFirst []string
	keep := func(b []byte) error {
		if maxLineBytes > 0 && len(b) > maxLineBytes {
			return ErrReplayLimitExceeded
		}
		line := string(bytes.TrimSuffix(b, []byte("\r")))
		if line != "" {
			newestFirst = append(newestFirst, line)
		}
		return nil
	}

	// partial holds the bytes between the start of the last chunk read and
	// the earliest newline found so far.
	var partial []byte
	offset := info.Size()
	total := 0
	chunk := make([]byte, replayChunkSize)

	for offset > 0 && len(newestFirst) < n {
		size := min(int64(replayChunkSize), offset)
		offset -= size
		total += int(size)
		if maxBytes > 0 && total > maxBytes {
			return nil, ErrReplayLimitExceeded
		}
		if _, err := f.ReadAt(chunk[:size], offset); err != nil {
			return nil, err
		}
		partial = append(slices.Clone(chunk[:size]), partial...)

		for len(newestFirst) < n {
			i := bytes.LastIndexByte(partial, '\n')
			if i < 0 {
				break
			}
			if err := keep(partial[i+1:]); err != nil {
				return nil, err
			}
			partial = partial[:i]
		}
		if len(newestFirst) < n && maxLineBytes > 0 && len(partial) > maxLineBytes {
			return nil, ErrReplayLimitExceeded
		}
	}

	// The first line of the file has no newline before it.
	if offset == 0 && len(newestFirst) < n && len(partial) > 0 {
		if err := keep(partial); err != nil {
			return nil, err
		}
	}

	slices.Reverse(newestFirst)
	return newestFirst, nil
}
