package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/logfield/grok-go/pkg/extract"
	"github.com/logfield/grok-go/pkg/extract/rules"
	"github.com/logfield/grok-go/pkg/grok"
)

// defaultEventType is the event type of lines matched by an inline template.
const defaultEventType = "match"

var errNoParser = errors.New("a pattern or --rules file is required")

// buildRegistry returns a registry holding the definitions of every pattern
// file, in order, on top of the built-in library.
func buildRegistry(patternFiles []string) (*grok.Registry, error) {
	reg := grok.NewRegistry()
	for i, path := range patternFiles {
		if err := reg.LoadPatternFile(path); err != nil {
			// LoadPatternFile errors are already sanitized (no path)
			return nil, fmt.Errorf("patterns file %d: %w", i+1, err)
		}
	}
	return reg, nil
}

// compileOptions translates cfg into grok compile options.
func compileOptions(cfg *Config, logger *slog.Logger) ([]grok.Option, error) {
	engine, err := grok.ParseEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return []grok.Option{
		grok.WithEngine(engine),
		grok.WithMaxRecursion(cfg.MaxRecursion),
		grok.WithLogger(logger),
	}, nil
}

// compileTemplate compiles one inline template against the configured
// registry.
func compileTemplate(cfg *Config, template string, logger *slog.Logger) (*grok.Pattern, error) {
	reg, err := buildRegistry(cfg.PatternsFiles)
	if err != nil {
		return nil, err
	}
	opts, err := compileOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	return reg.Compile(template, cfg.AliasOnly, opts...)
}

// buildParser builds a Parser from an optional inline template and the
// configured rule files. The template parser runs first; every parser sees
// every line.
func buildParser(cfg *Config, template, eventType string, logger *slog.Logger) (extract.Parser, error) {
	reg, err := buildRegistry(cfg.PatternsFiles)
	if err != nil {
		return nil, err
	}
	opts, err := compileOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	var parsers []extract.Parser

	if template != "" {
		p, err := reg.Compile(template, cfg.AliasOnly, opts...)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		if eventType == "" {
			eventType = defaultEventType
		}
		parsers = append(parsers, extract.FromPattern(p, eventType))
	}

	for i, path := range cfg.RulesFiles {
		rp, err := rules.NewRuleParserFromFile(path,
			rules.WithRegistry(reg),
			rules.WithCompileOptions(opts...),
			rules.WithLogger(logger),
		)
		if err != nil {
			// Error from rules package is already sanitized (no path)
			return nil, fmt.Errorf("rules file %d: %w", i+1, err)
		}
		logger.Debug("loaded rules", "file", i+1, "rules", rp.Len())
		parsers = append(parsers, rp)
	}

	switch len(parsers) {
	case 0:
		return nil, errNoParser
	case 1:
		return parsers[0], nil
	}
	return &extract.Chain{Mode: extract.ChainAll, Parsers: parsers}, nil
}
