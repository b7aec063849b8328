// Package yamlrule implements the yaml rule: formatting checks on the raw
// text and on the scalar values of YAML files.
package yamlrule

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	"github.com/tinovyatkin/ansible-lint/internal/rules/configutil"
)

// ID is the rule identifier.
const ID = "yaml"

// truthyValues are the spellings YAML 1.1 reads as booleans.
var truthyValues = []string{
	"YES", "Yes", "yes", "NO", "No", "no",
	"TRUE", "True", "true", "FALSE", "False", "false",
	"ON", "On", "on", "OFF", "Off", "off",
}

// Config is the configuration of the yaml rule.
type Config struct {
	// MaxLineLength is the longest allowed line, in characters.
	MaxLineLength int `json:"max_line_length,omitempty" koanf:"max_line_length"`

	// TruthyAllowedValues are the boolean spellings accepted.
	TruthyAllowedValues []string `json:"truthy_allowed_values,omitempty" koanf:"truthy_allowed_values"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxLineLength:       160,
		TruthyAllowedValues: []string{"true", "false"},
	}
}

// Rule implements the yaml rule.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Violations reported by yamllint.",
		Description:      "Checks line length, trailing spaces and boolean spellings of YAML files.",
		Severity:         rules.SeverityVeryLow,
		Tags:             []string{"formatting", "yaml"},
		Link:             rules.DocURL(ID),
		Version:          "v5.0.0",
	}
}

// Schema returns the JSON Schema for this rule's configuration.
func (r *Rule) Schema() map[string]any {
	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"max_line_length": map[string]any{
				"type":    "integer",
				"minimum": 1,
			},
			"truthy_allowed_values": map[string]any{
				"type":  "array",
				"items": map[string]any{"enum": truthyValues},
			},
		},
		"additionalProperties": false,
	}
}

// DefaultConfig returns the default configuration.
func (r *Rule) DefaultConfig() any {
	return DefaultConfig()
}

// ValidateConfig validates the configuration against the rule's JSON Schema.
func (r *Rule) ValidateConfig(config map[string]any) error {
	return configutil.ValidateWithSchema(config, r.Schema())
}

func (r *Rule) config(rc *rules.RunContext) Config {
	return configutil.Resolve(rc.Options(ID), DefaultConfig())
}

// MatchLine checks line length and trailing whitespace.
func (r *Rule) MatchLine(rc *rules.RunContext, file *lintable.Lintable, lineno int, line string) []rules.MatchError {
	cfg := r.config(rc)
	loc := rules.NewLineLocation(file.Path, lineno)

	var out []rules.MatchError
	if n := utf8.RuneCountInString(line); n > cfg.MaxLineLength && !unbreakable(line) {
		out = append(out, rules.NewMatch(r, loc,
			fmt.Sprintf("line too long (%d > %d characters)", n, cfg.MaxLineLength)).
			WithTag(ID+"[line-length]").
			WithColumn(cfg.MaxLineLength+1))
	}
	if trimmed := strings.TrimRight(line, " \t"); len(trimmed) != len(line) {
		out = append(out, rules.NewMatch(r, loc, "trailing spaces").
			WithTag(ID+"[trailing-spaces]").
			WithColumn(utf8.RuneCountInString(trimmed)+1))
	}
	return out
}

// unbreakable reports whether a line is one long word, such as a URL, that
// cannot be wrapped.
func unbreakable(line string) bool {
	s := strings.TrimLeft(line, " ")
	for _, prefix := range []string{"- ", "# "} {
		s = strings.TrimPrefix(s, prefix)
	}
	return !strings.ContainsAny(strings.TrimSpace(s), " \t")
}

// MatchYAML reports boolean values spelled other than the allowed forms.
func (r *Rule) MatchYAML(rc *rules.RunContext, file *lintable.Lintable) []rules.MatchError {
	doc, err := file.Document()
	if err != nil {
		return nil
	}
	allowed := r.config(rc).TruthyAllowedValues
	sorted := slices.Sorted(slices.Values(allowed))
	msg := fmt.Sprintf("truthy value should be one of [%s]", strings.Join(sorted, ", "))

	var out []rules.MatchError
	check := func(n *yaml.Node) {
		if n.Kind != yaml.ScalarNode || n.Style != 0 {
			return
		}
		if slices.Contains(truthyValues, n.Value) && !slices.Contains(allowed, n.Value) {
			out = append(out, rules.NewMatch(r, rules.NewNodeLocation(file.Path, n), msg).
				WithTag(ID+"[truthy]"))
		}
	}
	for _, root := range doc.Nodes {
		ansible.Walk(root, func(n *yaml.Node) {
			switch n.Kind {
			case yaml.MappingNode:
				for i := 1; i < len(n.Content); i += 2 {
					check(n.Content[i])
				}
			case yaml.SequenceNode:
				for _, item := range n.Content {
					check(item)
				}
			}
		})
	}
	return out
}

func init() {
	rules.Register(New())
}
