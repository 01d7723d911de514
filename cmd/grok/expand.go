package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// expansion is the jsonl form of grok expand.
type expansion struct {
	Template string   `json:"template"`
	Regex    string   `json:"regex"`
	Engine   string   `json:"engine"`
	Fields   []string `json:"fields"`
}

func newExpandCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand PATTERN",
		Short: "Print the regular expression a template expands to",
		Long: `Compile a template and print the native regular expression, the
engine that accepted it and the field names a match produces.

Example:
  grok expand -a '%{IP:client} %{WORD:verb}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := compileTemplate(c.cfg, args[0], c.logger)
			if err != nil {
				return err
			}

			x := expansion{
				Template: p.Template(),
				Regex:    p.String(),
				Engine:   p.Engine().String(),
				Fields:   p.Fields(),
			}
			out := cmd.OutOrStdout()

			if c.cfg.Format == "jsonl" {
				data, err := json.Marshal(x)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			label := color.New(color.Bold, color.FgCyan)
			if colorEnabled(c.cfg.Color, out) {
				label.EnableColor()
			} else {
				label.DisableColor()
			}
			fields := "(none)"
			if len(x.Fields) > 0 {
				fields = strings.Join(x.Fields, ", ")
			}
			_, err = fmt.Fprintf(out, "%s %s\n%s %s\n%s %s\n",
				label.Sprint("regex: "), x.Regex,
				label.Sprint("engine:"), x.Engine,
				label.Sprint("fields:"), fields,
			)
			return err
		},
	}
	cmd.Flags().BoolP("alias-only", "a", false, "Capture only aliased placeholders")
	return cmd
}
