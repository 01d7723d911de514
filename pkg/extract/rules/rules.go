// Package rules loads YAML rule files and turns them into an extract.Parser.
//
// A rule file bundles extra pattern fragments with a list of rules. Each rule
// is a grok template tagged with an event type and an optional condition
// evaluated over the extracted fields.
package rules

// RuleFile is the structure of a YAML rule file.
//
// Example YAML file:
//
//	version: 1
//	patterns:
//	  APP_ID: '[a-z]{3}-\d+'
//	rules:
//	  - id: sshd_failed
//	    event_type: ssh_login_failed
//	    match: 'Failed password for %{USERNAME:user} from %{IP:client}'
//	    alias_only: true
//	    when: 'client != "127.0.0.1"'
type RuleFile struct {
	// Version is the rule file format version. Only version 1 is supported.
	Version int `yaml:"version"`

	// Patterns holds extra fragments, name to fragment. They are visible to
	// every rule in the file and shadow built-in fragments of the same name.
	Patterns map[string]string `yaml:"patterns"`

	// Rules is evaluated in order for every line.
	Rules []Rule `yaml:"rules"`
}

// Rule is a single extraction rule.
type Rule struct {
	// ID identifies the rule. IDs must be unique within a file.
	ID string `yaml:"id"`

	// EventType is copied to Event.Type when the rule matches.
	EventType string `yaml:"event_type"`

	// Match is the grok template, e.g. "%{IP:client} %{WORD:verb}".
	Match string `yaml:"match"`

	// AliasOnly drops placeholders without an alias from the output.
	AliasOnly bool `yaml:"alias_only"`

	// When is an optional boolean expression over the extracted fields.
	// A rule whose condition evaluates to false emits no event.
	When string `yaml:"when,omitempty"`
}
