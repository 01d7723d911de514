package rules

import (
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/logfield/grok-go/internal/safefile"
)

const (
	// MaxRuleFileSize is the maximum allowed size for a rule file (1MB).
	MaxRuleFileSize = 1 * 1024 * 1024

	// MaxMatchLength is the maximum allowed length of a rule template.
	MaxMatchLength = 4096

	// MaxRuleCount is the maximum number of rules in one file.
	MaxRuleCount = 1000

	// SupportedVersion is the only accepted rule file format version.
	SupportedVersion = 1
)

var patternNameRe = regexp.MustCompile(`^\w+$`)

// Load reads and validates the rule file at path. The file must be a regular
// file no larger than MaxRuleFileSize. Errors do not contain the path.
func Load(path string) (*RuleFile, error) {
	data, err := safefile.ReadRegular(path, MaxRuleFileSize)
	if err != nil {
		if errors.Is(err, safefile.ErrTooLarge) {
			return nil, fmt.Errorf("rule file too large (max %d bytes)", MaxRuleFileSize)
		}
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses and validates a rule file held in memory.
func LoadBytes(data []byte) (*RuleFile, error) {
	if len(data) == 0 {
		return nil, errors.New("rule file is empty")
	}
	if len(data) > MaxRuleFileSize {
		return nil, fmt.Errorf("rule file too large: %d bytes (max %d)", len(data), MaxRuleFileSize)
	}

	var rf RuleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := rf.Validate(); err != nil {
		return nil, err
	}
	return &rf, nil
}

// Validate performs schema-level checks:
//   - supported version
//   - between 1 and MaxRuleCount rules
//   - id, event_type and match present on every rule
//   - unique rule IDs
//   - templates no longer than MaxMatchLength
//   - fragment names made of word characters
//
// Templates are not compiled here; NewRuleParser does that.
func (rf *RuleFile) Validate() error {
	if rf.Version != SupportedVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (only version %d is supported)", rf.Version, SupportedVersion),
		}
	}
	if len(rf.Rules) == 0 {
		return &ValidationError{Field: "rules", Message: "at least one rule is required"}
	}
	if len(rf.Rules) > MaxRuleCount {
		return &ValidationError{
			Field:   "rules",
			Message: fmt.Sprintf("too many rules (%d), maximum allowed is %d", len(rf.Rules), MaxRuleCount),
		}
	}
	for name := range rf.Patterns {
		if !patternNameRe.MatchString(name) {
			return &ValidationError{
				Field:   "patterns",
				Message: fmt.Sprintf("invalid pattern name %q (letters, digits and underscore only)", name),
			}
		}
	}

	seen := make(map[string]int, len(rf.Rules))
	for i, r := range rf.Rules {
		if r.ID == "" {
			return &RuleError{Index: i, Field: "id", Message: "id is required"}
		}
		if r.EventType == "" {
			return &RuleError{Index: i, ID: r.ID, Field: "event_type", Message: "event_type is required"}
		}
		if r.Match == "" {
			return &RuleError{Index: i, ID: r.ID, Field: "match", Message: "match is required"}
		}
		if prev, ok := seen[r.ID]; ok {
			return &RuleError{
				Index:   i,
				ID:      r.ID,
				Field:   "id",
				Message: fmt.Sprintf("duplicate id (previously defined at rule[%d])", prev),
			}
		}
		seen[r.ID] = i

		if len(r.Match) > MaxMatchLength {
			return &RuleError{
				Index:   i,
				ID:      r.ID,
				Field:   "match",
				Message: fmt.Sprintf("template too long: %d bytes (max %d)", len(r.Match), MaxMatchLength),
			}
		}
	}
	return nil
}
