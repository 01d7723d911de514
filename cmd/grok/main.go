// Command grok compiles grok templates and extracts typed fields from logs.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// cli is the state shared by all commands of one invocation.
type cli struct {
	cfgFile string
	cfg     *Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rootCmd := &cobra.Command{
		Use:   "grok",
		Short: "Compile grok templates and extract fields from log lines",
		Long: `grok expands %{NAME:alias:type} templates into regular expressions
and uses them to pull typed fields out of log lines.

Templates reference the built-in pattern library (see "grok patterns")
and any pattern files given with --patterns-file. Rule files bundle
several templates with event types and optional conditions.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := loadConfig(c.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = newLogger(cmd.ErrOrStderr(), cfg.Verbose)

			if used := configFileUsed(c.cfgFile); used != "" {
				c.logger.Debug("using config file", "path", used)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (default: ./grok.yaml)")
	flags.BoolP("verbose", "v", false, "Verbose logging on stderr")
	flags.String("engine", "", "Regex engine: re2, pcre, auto")
	flags.StringSlice("patterns-file", nil, "Extra pattern definition file (repeatable)")
	flags.StringSlice("rules", nil, "Rule file (repeatable)")
	flags.Int("max-recursion", 0, "Rewriting steps allowed per compile")
	flags.StringP("format", "f", "", "Output format: jsonl, pretty, table")
	flags.String("color", "", "Color output: auto, always, never")

	_ = rootCmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"re2", "pcre", "auto"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return sortedFormats(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("color", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "always", "never"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newMatchCmd(c))
	rootCmd.AddCommand(newTailCmd(c))
	rootCmd.AddCommand(newExpandCmd(c))
	rootCmd.AddCommand(newPatternsCmd(c))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
