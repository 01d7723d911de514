// Package extract turns log lines into structured events using compiled grok
// patterns.
//
// A Parser inspects one line at a time and reports the events it produced.
// Parsers compose through Chain, and ordinary functions become parsers
// through ParserFunc:
//
//	p, err := grok.Compile("%{SYSLOGLINE}", true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	chain := &extract.Chain{
//	    Mode: extract.ChainFirst,
//	    Parsers: []extract.Parser{
//	        extract.FromPattern(p, "syslog"),
//	        fallback,
//	    },
//	}
//	result, err := chain.ParseLine(ctx, line)
//
// Rule files, which bundle several patterns with event types and conditions,
// live in the rules subpackage.
package extract
