package rules

import (
	"slices"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
)

// Severity is the impact of a rule, as shown in CodeClimate and SARIF output.
type Severity string

const (
	SeverityVeryHigh Severity = "VERY_HIGH"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityVeryLow  Severity = "VERY_LOW"
	SeverityInfo     Severity = "INFO"
)

// Well-known rule tags.
const (
	// TagOptIn marks rules that only run when listed in the enable list.
	TagOptIn = "opt-in"
	// TagExperimental marks rules whose matches are warnings by default.
	TagExperimental = "experimental"
	// TagUnskippable marks rules that noqa comments and skip lists cannot
	// silence.
	TagUnskippable = "unskippable"
)

// RuleMetadata contains static information about a rule.
type RuleMetadata struct {
	// ID is the unique identifier (e.g., "no-changed-when").
	ID string

	// ShortDescription is the one-line summary, used as default message.
	ShortDescription string

	// Description explains what the rule checks.
	Description string

	// Severity is the rule's impact.
	Severity Severity

	// Tags group related rules for selection and skipping.
	Tags []string

	// Link points to the rule documentation.
	Link string

	// Version is the release that introduced the rule.
	Version string
}

// HasTag reports whether the rule carries tag.
func (m RuleMetadata) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// Names returns the id followed by the tags.
func (m RuleMetadata) Names() []string {
	return append([]string{m.ID}, m.Tags...)
}

// Rule is the interface every rule implements. A rule participates in
// matching through one or more of the hook interfaces below.
type Rule interface {
	// Metadata returns static information about the rule.
	Metadata() RuleMetadata
}

// LineRule is called for each non-comment line of a file.
type LineRule interface {
	Rule
	MatchLine(rc *RunContext, file *lintable.Lintable, lineno int, line string) []MatchError
}

// TaskRule is called for each task, including tasks nested in blocks.
type TaskRule interface {
	Rule
	MatchTask(rc *RunContext, file *lintable.Lintable, task *ansible.Task) []MatchError
}

// PlayRule is called for each play of a playbook, or once with the top-level
// document of other YAML kinds. It must check play.Skips itself.
type PlayRule interface {
	Rule
	MatchPlay(rc *RunContext, file *lintable.Lintable, play *ansible.Play) []MatchError
}

// YAMLRule is called once per YAML file with the parsed document available
// through file.Document().
type YAMLRule interface {
	Rule
	MatchYAML(rc *RunContext, file *lintable.Lintable) []MatchError
}

// DirRule is called once per role directory.
type DirRule interface {
	Rule
	MatchDir(rc *RunContext, file *lintable.Lintable) []MatchError
}

// ConfigurableRule is an optional interface for rules that accept configuration.
type ConfigurableRule interface {
	Rule

	// DefaultConfig returns the default configuration for this rule.
	DefaultConfig() any

	// ValidateConfig checks if a configuration is valid for this rule.
	ValidateConfig(config map[string]any) error
}

// PlaySkipped reports whether the play's noqa comments name the rule or tag.
func PlaySkipped(play *ansible.Play, names ...string) bool {
	for _, n := range names {
		if slices.Contains(play.Skips, n) {
			return true
		}
	}
	return false
}
