package grok

import (
	"fmt"
	"sort"
)

// Pattern is a compiled template. It is immutable and safe for concurrent
// use by multiple goroutines.
type Pattern struct {
	template string
	expr     string
	m        matcher

	fields []field
	slots  []int // engine group number of fields[i]

	natives []nativeGroup
}

// nativeGroup is a named group written literally in the template, e.g.
// (?P<pid>\d+). Its value is reported as a string under its own name.
type nativeGroup struct {
	name string
	slot int
}

func newPattern(template, expr string, m matcher, fields []field) *Pattern {
	generated := make(map[string]int, len(fields))
	for i := range fields {
		generated[captureName(i)] = i
	}

	p := &Pattern{
		template: template,
		expr:     expr,
		m:        m,
		fields:   fields,
		slots:    make([]int, len(fields)),
	}
	for num, name := range m.groupNames() {
		if name == "" {
			continue
		}
		if i, ok := generated[name]; ok {
			p.slots[i] = num
			continue
		}
		p.natives = append(p.natives, nativeGroup{name: name, slot: num})
	}
	return p
}

// String returns the expanded native regular expression.
func (p *Pattern) String() string { return p.expr }

// Template returns the text Compile was called with.
func (p *Pattern) Template() string { return p.template }

// Engine reports the engine that compiled the pattern. With EngineAuto this
// is the engine that was actually used.
func (p *Pattern) Engine() Engine { return p.m.engine() }

// Fields returns the distinct output field names, sorted.
func (p *Pattern) Fields() []string {
	seen := make(map[string]bool, len(p.fields)+len(p.natives))
	names := make([]string, 0, len(p.fields)+len(p.natives))
	for _, f := range p.fields {
		if !seen[f.name] {
			seen[f.name] = true
			names = append(names, f.name)
		}
	}
	for _, n := range p.natives {
		if !seen[n.name] {
			seen[n.name] = true
			names = append(names, n.name)
		}
	}
	sort.Strings(names)
	return names
}

// Match reports whether text contains a match of the pattern.
func (p *Pattern) Match(text string) (bool, error) {
	return p.m.matchString(text)
}

// Parse matches text and returns the extracted fields. Text that does not
// match yields an empty map and a nil error.
//
// When several placeholders share an external name and more than one of
// them took part in the match, the leftmost one in the expression wins.
// Named groups written literally in the template are reported as strings
// under their own name unless a placeholder already produced that name.
//
// A value that cannot be converted to its placeholder's type fails the
// whole call with a *ConversionError.
func (p *Pattern) Parse(text string) (map[string]Value, error) {
	values, _, err := p.ParseMatch(text)
	return values, err
}

// ParseBytes is like Parse for a byte slice.
func (p *Pattern) ParseBytes(b []byte) (map[string]Value, error) {
	return p.Parse(string(b))
}

// ParseMatch is like Parse but also reports whether text matched at all,
// which Parse cannot express for patterns without output fields.
func (p *Pattern) ParseMatch(text string) (map[string]Value, bool, error) {
	caps, err := p.m.submatches(text)
	if err != nil {
		return nil, false, fmt.Errorf("grok: match: %w", err)
	}
	if caps == nil {
		return map[string]Value{}, false, nil
	}

	values := make(map[string]Value, len(p.fields)+len(p.natives))
	for i, f := range p.fields {
		c := caps[p.slots[i]]
		if !c.ok {
			continue
		}
		if _, done := values[f.name]; done {
			continue
		}
		v, err := Convert(c.text, f.typ)
		if err != nil {
			return nil, true, &ConversionError{Field: f.name, Raw: c.text, Type: f.typ, Err: err}
		}
		values[f.name] = v
	}
	for _, n := range p.natives {
		c := caps[n.slot]
		if !c.ok {
			continue
		}
		if _, done := values[n.name]; done {
			continue
		}
		values[n.name] = StringValue(c.text)
	}
	return values, true, nil
}
