package grok

import "regexp"

// placeholderPattern matches one %{FRAGMENT:alias:type} macro.
// The type is matched as any word so that a misspelled tag is reported at
// compile time instead of leaving the macro in the regex as literal text.
var placeholderPattern = regexp.MustCompile(
	`%\{(\w+)(?::([\w@.\-]+)(?::(\w+))?)?\}`,
)

// token is either literal regex text or a placeholder.
type token struct {
	text string // literal text, or the full %{...} macro for placeholders

	placeholder bool
	fragment    string
	alias       string
	typ         string
}

// scan splits text into literal and placeholder tokens, left to right.
// Concatenating the text of every token reproduces the input.
func scan(text string) []token {
	locs := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		if text == "" {
			return nil
		}
		return []token{{text: text}}
	}

	tokens := make([]token, 0, 2*len(locs)+1)
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			tokens = append(tokens, token{text: text[last:loc[0]]})
		}
		tok := token{
			text:        text[loc[0]:loc[1]],
			placeholder: true,
			fragment:    text[loc[2]:loc[3]],
		}
		if loc[4] >= 0 {
			tok.alias = text[loc[4]:loc[5]]
		}
		if loc[6] >= 0 {
			tok.typ = text[loc[6]:loc[7]]
		}
		tokens = append(tokens, tok)
		last = loc[1]
	}
	if last < len(text) {
		tokens = append(tokens, token{text: text[last:]})
	}
	return tokens
}

// HasPlaceholders reports whether text contains at least one %{...} macro.
func HasPlaceholders(text string) bool {
	return placeholderPattern.MatchString(text)
}
