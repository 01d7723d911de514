// Package grok compiles grok-style templates into regular expressions and
// extracts typed fields from matching text.
//
// A template is a regular expression that may contain placeholders:
//
//	%{FRAGMENT}
//	%{FRAGMENT:alias}
//	%{FRAGMENT:alias:type}
//
// FRAGMENT names a reusable regular expression registered in a [Registry] or
// shipped in the built-in library (see [DefaultPatterns]). Fragments may
// contain placeholders themselves. The alias is the output field name and
// defaults to the fragment name. The type is one of int, float, bool or
// boolean; without it the value is a string.
//
// # Basic Usage
//
//	reg := grok.NewRegistry()
//	reg.AddPattern("NUMBER", `\d+`)
//
//	p, err := reg.Compile("%{NUMBER:digit:int}", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fields, err := p.Parse("hello 123")
//	// fields["digit"].Int() == 123
//
// # Alias-only mode
//
// Compiling with aliasOnly set drops every placeholder that has no explicit
// alias from the output. This keeps composite library fragments (an IP is an
// IPV4 or IPV6, a MAC is one of three notations) from reporting their parts:
//
//	p, _ := grok.Compile("%{USERNAME} %{EMAILADDRESS:email}", true)
//	fields, _ := p.Parse("admin admin@example.com")
//	// fields has exactly one key: "email"
//
// # Engines
//
// Patterns compile with the standard library regexp package by default.
// [WithEngine] selects a backtracking engine for expressions that need
// lookaround or backreferences, or [EngineAuto] to use it only when RE2
// rejects the expression.
//
// # Errors
//
// Compile returns *[UnknownPatternError] for a fragment that cannot be found,
// [ErrRecursionLimitExceeded] when expansion does not terminate (usually two
// fragments that refer to each other), and *[CompileError] for an invalid
// expression or an unsupported type tag. Parse returns *[ConversionError]
// when a typed field cannot be converted.
package grok
