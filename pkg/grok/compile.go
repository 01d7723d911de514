package grok

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// captureName is the generated group name for field index i.
func captureName(i int) string {
	return "name" + strconv.Itoa(i)
}

// field is one entry of the alias table. Its position in Pattern.fields is
// the index behind its generated capture name.
type field struct {
	name string // external name: alias, or fragment name when no alias is given
	typ  FieldType
}

// expander turns a template into native regex text.
//
// Each placeholder becomes a group wrapping its fragment, and the fragment is
// expanded in turn, depth first and left to right. Field indices are handed
// out in that same order, so a lower index always sits further left in the
// final expression.
//
// The budget counts rewriting steps: one step resolves every occurrence of
// one placeholder text, so a repeated placeholder is paid for once. A
// fragment that reaches itself again while being expanded can never finish
// and fails with ErrRecursionLimitExceeded right away.
type expander struct {
	pattern   string
	lookup    func(name string) (string, bool)
	aliasOnly bool
	limit     int
	budget    int

	buf     strings.Builder
	fields  []field
	tokens  map[string][]token  // scan results per fragment text
	charged map[string]struct{} // placeholder texts already paid for
	active  []string            // fragment names on the expansion stack
}

func (e *expander) expand(text string) error {
	toks, ok := e.tokens[text]
	if !ok {
		toks = scan(text)
		e.tokens[text] = toks
	}

	for _, tok := range toks {
		if !tok.placeholder {
			e.buf.WriteString(tok.text)
			continue
		}

		if _, paid := e.charged[tok.text]; !paid {
			if e.budget <= 0 {
				return fmt.Errorf("%w: more than %d rewriting steps", ErrRecursionLimitExceeded, e.limit)
			}
			e.budget--
			e.charged[tok.text] = struct{}{}
		}

		fragment, ok := e.lookup(tok.fragment)
		if !ok {
			return &UnknownPatternError{Name: tok.fragment}
		}
		typ, ok := ParseFieldType(tok.typ)
		if !ok {
			return &CompileError{
				Pattern: e.pattern,
				Message: fmt.Sprintf("placeholder %s: type %q is not one of int, float, bool, boolean", tok.text, tok.typ),
				Err:     ErrUnsupportedType,
			}
		}

		if tok.alias == "" && e.aliasOnly {
			e.buf.WriteString("(?:")
		} else {
			name := tok.alias
			if name == "" {
				name = tok.fragment
			}
			e.buf.WriteString("(?<")
			e.buf.WriteString(captureName(len(e.fields)))
			e.buf.WriteString(">")
			e.fields = append(e.fields, field{name: name, typ: typ})
		}
		if slices.Contains(e.active, tok.fragment) {
			return fmt.Errorf("%w: %s refers back to itself", ErrRecursionLimitExceeded, tok.fragment)
		}
		e.active = append(e.active, tok.fragment)
		if err := e.expand(fragment); err != nil {
			return err
		}
		e.active = e.active[:len(e.active)-1]
		e.buf.WriteString(")")
	}
	return nil
}

// Compile expands every %{FRAGMENT:alias:type} placeholder in text and
// compiles the result.
//
// Fragments are looked up in r first and then in the built-in library.
// With aliasOnly set, placeholders without an alias become non-capturing
// groups and produce no output field.
//
// Errors: *UnknownPatternError, ErrRecursionLimitExceeded (wrapped),
// *CompileError.
func (r *Registry) Compile(text string, aliasOnly bool, opts ...Option) (*Pattern, error) {
	cfg := applyOptions(opts)

	r.mu.RLock()
	e := &expander{
		pattern:   text,
		lookup:    r.lookupLocked,
		aliasOnly: aliasOnly,
		limit:     cfg.maxRecursion,
		budget:    cfg.maxRecursion,
		tokens:    make(map[string][]token),
		charged:   make(map[string]struct{}),
	}
	err := e.expand(text)
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	expr := e.buf.String()
	m, err := compileMatcher(expr, cfg)
	if err != nil {
		return nil, &CompileError{Pattern: text, Message: err.Error(), Err: err}
	}

	p := newPattern(text, expr, m, e.fields)
	cfg.logger.Debug("compiled pattern",
		"pattern", text,
		"alias_only", aliasOnly,
		"engine", m.engine().String(),
		"steps", e.limit-e.budget,
		"fields", len(e.fields),
	)
	return p, nil
}

// MustCompile is like Compile but panics on error. It simplifies
// initialization of package-level patterns.
func (r *Registry) MustCompile(text string, aliasOnly bool, opts ...Option) *Pattern {
	p, err := r.Compile(text, aliasOnly, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Compile compiles text against the built-in library only.
func Compile(text string, aliasOnly bool, opts ...Option) (*Pattern, error) {
	return NewRegistry().Compile(text, aliasOnly, opts...)
}

// MustCompile is like Compile but panics on error.
func MustCompile(text string, aliasOnly bool, opts ...Option) *Pattern {
	return NewRegistry().MustCompile(text, aliasOnly, opts...)
}
