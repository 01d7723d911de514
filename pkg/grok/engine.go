package grok

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Engine selects the regular expression implementation behind a Pattern.
type Engine int

const (
	// EngineRE2 uses the standard library regexp package (RE2 syntax,
	// guaranteed linear-time matching).
	EngineRE2 Engine = iota

	// EnginePCRE uses a backtracking engine with lookaround, backreferences
	// and atomic groups. Matching time is bounded only by WithMatchTimeout.
	EnginePCRE

	// EngineAuto tries RE2 first and falls back to PCRE when RE2 rejects the
	// expanded expression.
	EngineAuto
)

func (e Engine) String() string {
	switch e {
	case EngineRE2:
		return "re2"
	case EnginePCRE:
		return "pcre"
	case EngineAuto:
		return "auto"
	default:
		return fmt.Sprintf("Engine(%d)", int(e))
	}
}

// ParseEngine parses an engine name as accepted on the command line.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "re2":
		return EngineRE2, nil
	case "pcre", "regexp2":
		return EnginePCRE, nil
	case "auto":
		return EngineAuto, nil
	default:
		return 0, fmt.Errorf("unknown regex engine %q (want re2, pcre or auto)", s)
	}
}

// capture is the text of one group and whether it took part in the match.
type capture struct {
	text string
	ok   bool
}

// matcher abstracts over the two engines. Group numbers are engine specific;
// groupNames is indexed by the same numbers and holds "" for unnamed groups.
type matcher interface {
	matchString(s string) (bool, error)
	// submatches returns one capture per group number, or nil when s does
	// not match.
	submatches(s string) ([]capture, error)
	groupNames() []string
	engine() Engine
}

// compileMatcher compiles expr with the configured engine.
func compileMatcher(expr string, cfg *config) (matcher, error) {
	switch cfg.engine {
	case EnginePCRE:
		return compilePCRE(expr, cfg.matchTimeout)
	case EngineAuto:
		m, err := compileRE2(expr)
		if err == nil {
			return m, nil
		}
		pm, perr := compilePCRE(expr, cfg.matchTimeout)
		if perr != nil {
			// Report the RE2 error; it is usually the more precise one.
			return nil, err
		}
		cfg.logger.Info("expression needs backtracking engine", "re2_error", err.Error())
		return pm, nil
	default:
		return compileRE2(expr)
	}
}

type re2Matcher struct {
	re *regexp.Regexp
}

func compileRE2(expr string) (*re2Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &re2Matcher{re: re}, nil
}

func (m *re2Matcher) matchString(s string) (bool, error) {
	return m.re.MatchString(s), nil
}

func (m *re2Matcher) submatches(s string) ([]capture, error) {
	loc := m.re.FindStringSubmatchIndex(s)
	if loc == nil {
		return nil, nil
	}
	caps := make([]capture, len(loc)/2)
	for i := range caps {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			continue
		}
		caps[i] = capture{text: s[start:end], ok: true}
	}
	return caps, nil
}

func (m *re2Matcher) groupNames() []string {
	return m.re.SubexpNames()
}

func (m *re2Matcher) engine() Engine { return EngineRE2 }

type pcreMatcher struct {
	re    *regexp2.Regexp
	names []string
}

func compilePCRE(expr string, timeout time.Duration) (*pcreMatcher, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}

	// regexp2 numbers named groups after all unnamed ones and reports the
	// number itself as the name of an unnamed group.
	maxNum := 0
	for _, n := range re.GetGroupNumbers() {
		if n > maxNum {
			maxNum = n
		}
	}
	names := make([]string, maxNum+1)
	for _, n := range re.GetGroupNumbers() {
		if n == 0 {
			continue
		}
		name := re.GroupNameFromNumber(n)
		if _, err := strconv.Atoi(name); err == nil {
			continue
		}
		names[n] = name
	}
	return &pcreMatcher{re: re, names: names}, nil
}

func (m *pcreMatcher) matchString(s string) (bool, error) {
	return m.re.MatchString(s)
}

func (m *pcreMatcher) submatches(s string) ([]capture, error) {
	match, err := m.re.FindStringMatch(s)
	if err != nil || match == nil {
		return nil, err
	}
	caps := make([]capture, len(m.names))
	for n := range caps {
		g := match.GroupByNumber(n)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		caps[n] = capture{text: g.String(), ok: true}
	}
	return caps, nil
}

func (m *pcreMatcher) groupNames() []string {
	return m.names
}

func (m *pcreMatcher) engine() Engine { return EnginePCRE }
