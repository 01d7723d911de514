package grok

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"sort"
	"sync"

	"github.com/logfield/grok-go/internal/safefile"
	"github.com/logfield/grok-go/pkg/grok/library"
)

// MaxPatternFileSize is the largest pattern file LoadPatternFile will read.
const MaxPatternFileSize = 4 * 1024 * 1024

// Definition is one named fragment.
type Definition struct {
	Name     string
	Fragment string
}

// Registry maps fragment names to regular expression fragments. Lookups that
// miss fall back to the built-in library (see DefaultPatterns).
//
// A Registry is safe for concurrent use. Compile holds a read lock for its
// whole run, so a concurrent AddPattern waits until the compile is done.
type Registry struct {
	mu       sync.RWMutex
	patterns map[string]string
}

// NewRegistry returns a registry holding defs. Later definitions overwrite
// earlier ones with the same name.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{patterns: make(map[string]string, len(defs))}
	for _, d := range defs {
		r.patterns[d.Name] = d.Fragment
	}
	return r
}

// AddPattern registers or replaces a fragment. Nothing is validated here;
// a broken fragment is reported by Compile.
func (r *Registry) AddPattern(name, fragment string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.patterns == nil {
		r.patterns = make(map[string]string)
	}
	r.patterns[name] = fragment
}

// AddPatterns registers every entry of m.
func (r *Registry) AddPatterns(m map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.patterns == nil {
		r.patterns = make(map[string]string, len(m))
	}
	maps.Copy(r.patterns, m)
}

// AddPatternsFrom reads definitions in the plain-text pattern format
// (one "NAME FRAGMENT" per line) and registers them.
func (r *Registry) AddPatternsFrom(rd io.Reader) error {
	entries, err := library.Read(rd)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.patterns == nil {
		r.patterns = make(map[string]string, len(entries))
	}
	for _, e := range entries {
		r.patterns[e.Name] = e.Fragment
	}
	return nil
}

// LoadPatternFile registers the definitions in the pattern file at path.
// The file must be a regular file no larger than MaxPatternFileSize.
// Returned errors do not contain the path.
func (r *Registry) LoadPatternFile(path string) error {
	data, err := safefile.ReadRegular(path, MaxPatternFileSize)
	if err != nil {
		return fmt.Errorf("failed to read pattern file: %w", err)
	}
	if err := r.AddPatternsFrom(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("invalid pattern file: %w", err)
	}
	return nil
}

// Lookup resolves name in the registry, then in the built-in library.
func (r *Registry) Lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(name)
}

func (r *Registry) lookupLocked(name string) (string, bool) {
	if fragment, ok := r.patterns[name]; ok {
		return fragment, true
	}
	return lookupDefault(name)
}

// Names returns the names registered directly in r, sorted. Built-in
// patterns are not included.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.patterns))
	for name := range r.patterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of fragments registered directly in r.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}

// Clone returns an independent copy of r.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &Registry{patterns: maps.Clone(r.patterns)}
}
