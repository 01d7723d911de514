package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/logfield/grok-go/pkg/grok"
)

func newPatternsCmd(c *cli) *cobra.Command {
	var namesOnly bool

	cmd := &cobra.Command{
		Use:   "patterns [NAME...]",
		Short: "List pattern definitions",
		Long: `List the built-in pattern library together with the definitions from
--patterns-file. Definitions from pattern files replace built-in ones of
the same name.

Examples:
  grok patterns
  grok patterns IP HTTPDATE
  grok patterns --names-only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := patternDefinitions(c.cfg.PatternsFiles)
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = make([]string, 0, len(defs))
				for name := range defs {
					names = append(names, name)
				}
				sort.Strings(names)
			}
			for _, name := range names {
				if _, ok := defs[name]; !ok {
					return &grok.UnknownPatternError{Name: name}
				}
			}

			out := cmd.OutOrStdout()
			switch {
			case namesOnly:
				for _, name := range names {
					if _, err := fmt.Fprintln(out, name); err != nil {
						return err
					}
				}
				return nil
			case c.cfg.Format == "table":
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{name, defs[name]})
				}
				return renderTable(out, []string{"Name", "Fragment"}, rows)
			default:
				// jsonl and pretty print one definition per line
				for _, name := range names {
					if err := printDefinition(out, c.cfg.Format, name, defs[name]); err != nil {
						return err
					}
				}
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&namesOnly, "names-only", false, "Print only pattern names")
	return cmd
}

// patternDefinitions returns the built-in definitions overlaid with those
// of the pattern files.
func patternDefinitions(patternFiles []string) (map[string]string, error) {
	defs := grok.DefaultPatterns()
	reg, err := buildRegistry(patternFiles)
	if err != nil {
		return nil, err
	}
	for _, name := range reg.Names() {
		if frag, ok := reg.Lookup(name); ok {
			defs[name] = frag
		}
	}
	return defs, nil
}

func printDefinition(out io.Writer, format, name, fragment string) error {
	if format == "jsonl" {
		data, err := json.Marshal(struct {
			Name     string `json:"name"`
			Fragment string `json:"fragment"`
		}{name, fragment})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	_, err := fmt.Fprintf(out, "%s %s\n", name, fragment)
	return err
}
