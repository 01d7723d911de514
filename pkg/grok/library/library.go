// Package library holds the built-in grok pattern definitions and the reader
// for the plain-text pattern format.
//
// A pattern file has one definition per line:
//
//	# comment
//	NAME FRAGMENT
//
// The first space separates the name from the fragment; the rest of the line,
// trimmed, is the fragment. Blank lines and lines starting with '#' are
// ignored.
package library

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"
)

//go:embed patterns/*
var builtinFS embed.FS

// maxLineSize bounds a single definition line.
const maxLineSize = 1024 * 1024

// Entry is one NAME FRAGMENT definition.
type Entry struct {
	Name     string
	Fragment string
}

// SyntaxError reports a malformed line in a pattern file.
type SyntaxError struct {
	Line    int // 1-based line number
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Read parses pattern definitions from r, in file order.
func Read(r io.Reader) ([]Entry, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var entries []Entry
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, fragment, ok := strings.Cut(line, " ")
		if !ok {
			return nil, &SyntaxError{Line: lineNo, Message: fmt.Sprintf("definition %q has no fragment", line)}
		}
		entries = append(entries, Entry{Name: name, Fragment: strings.TrimSpace(fragment)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading patterns: %w", err)
	}
	return entries, nil
}

// Files lists the embedded pattern files in load order.
func Files() []string {
	matches, err := fs.Glob(builtinFS, "patterns/*")
	if err != nil {
		// Glob only fails on a malformed pattern.
		panic(err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimPrefix(m, "patterns/"))
	}
	sort.Strings(names)
	return names
}

// ReadFile parses one embedded pattern file by name (see Files).
func ReadFile(name string) ([]Entry, error) {
	f, err := builtinFS.Open("patterns/" + name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return entries, nil
}

// Builtin returns every embedded definition. Files are read in the order
// reported by Files; a later definition of the same name wins when the
// entries are loaded into a map.
//
// The embedded files are part of the binary, so a parse failure is a
// programming error and panics.
func Builtin() []Entry {
	var all []Entry
	for _, name := range Files() {
		entries, err := ReadFile(name)
		if err != nil {
			panic("library: " + err.Error())
		}
		all = append(all, entries...)
	}
	return all
}
