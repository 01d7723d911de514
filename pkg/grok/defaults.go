package grok

import (
	"maps"
	"sync"

	"github.com/logfield/grok-go/pkg/grok/library"
)

// defaultTable is the built-in pattern library. It is built on first use
// and never modified afterwards.
var defaultTable = sync.OnceValue(func() map[string]string {
	entries := library.Builtin()
	table := make(map[string]string, len(entries)+1)
	for _, e := range entries {
		table[e.Name] = e.Fragment
	}
	table["BOOL"] = "true|false"
	return table
})

// lookupDefault resolves name in the built-in library.
func lookupDefault(name string) (string, bool) {
	fragment, ok := defaultTable()[name]
	return fragment, ok
}

// DefaultPatterns returns a copy of the built-in pattern library.
func DefaultPatterns() map[string]string {
	return maps.Clone(defaultTable())
}
