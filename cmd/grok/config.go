package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/logfield/grok-go/pkg/grok"
)

const (
	defaultConfigFile = "grok.yaml"
	envPrefix         = "GROK_"
)

// Config is the merged CLI configuration.
type Config struct {
	Engine        string   `koanf:"engine"`
	AliasOnly     bool     `koanf:"alias_only"`
	Format        string   `koanf:"format"`
	PatternsFiles []string `koanf:"patterns_files"`
	RulesFiles    []string `koanf:"rules_files"`
	MaxRecursion  int      `koanf:"max_recursion"`
	Color         string   `koanf:"color"`
	Verbose       bool     `koanf:"verbose"`
}

// flagKeys maps flag names whose config key is not the snake_case name.
var flagKeys = map[string]string{
	"patterns-file": "patterns_files",
	"rules":         "rules_files",
}

// configFileUsed returns the config file loadConfig reads, or "".
func configFileUsed(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// loadConfig merges configuration.
// Precedence (highest to lowest): flags > GROK_* env vars > config file > defaults
func loadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"engine":        grok.EngineRE2.String(),
		"alias_only":    false,
		"format":        "jsonl",
		"max_recursion": grok.DefaultMaxRecursion,
		"color":         "auto",
		"verbose":       false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := configFileUsed(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// GROK_MAX_RECURSION -> max_recursion
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := grok.ParseEngine(c.Engine); err != nil {
		return err
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format %q (valid: %s)", c.Format, strings.Join(sortedFormats(), ", "))
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color mode %q (valid: auto, always, never)", c.Color)
	}
	if c.MaxRecursion <= 0 {
		return fmt.Errorf("max_recursion must be positive, got %d", c.MaxRecursion)
	}
	return nil
}
