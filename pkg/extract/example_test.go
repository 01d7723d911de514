package extract_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/logfield/grok-go/pkg/extract"
	"github.com/logfield/grok-go/pkg/grok"
)

func Example() {
	syslog := extract.FromPattern(grok.MustCompile("%{SYSLOGLINE}", true), "syslog")
	fallback := extract.ParserFunc(func(ctx context.Context, line string) (extract.Result, error) {
		return extract.Result{Events: []extract.Event{{Type: "unparsed"}}, Matched: true}, nil
	})
	chain := &extract.Chain{Mode: extract.ChainFirst, Parsers: []extract.Parser{syslog, fallback}}

	input := strings.Join([]string{
		"Oct 11 22:14:15 mymachine su[230]: 'su root' failed for lonvick on /dev/pts/8",
		"free-form text",
	}, "\n")

	for ev, err := range extract.ParseReader(context.Background(), strings.NewReader(input), "auth.log", chain) {
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s:%d %s program=%v pid=%v\n", ev.Source, ev.Line, ev.Type, ev.Fields["program"], ev.Fields["pid"])
	}
	// Output:
	// auth.log:1 syslog program=su pid=230
	// auth.log:2 unparsed program= pid=
}
