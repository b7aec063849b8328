// Package fqcn implements the fqcn rule: actions should be written with
// their fully qualified collection name.
package fqcn

import (
	"fmt"
	"strings"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// ID is the rule identifier.
const ID = "fqcn"

// Rule implements fqcn.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Use FQCN for builtin actions.",
		Description: "Check whether actions are using using full qualified collection names (FQCN), " +
			"so they cannot be shadowed by modules from other collections.",
		Severity: rules.SeverityMedium,
		Tags:     []string{"formatting"},
		Link:     rules.DocURL(ID),
		Version:  "v6.8.0",
	}
}

func (r *Rule) MatchTask(_ *rules.RunContext, file *lintable.Lintable, task *ansible.Task) []rules.MatchError {
	module := task.Action
	if module == "" || task.Err != nil || ansible.IsTemplated(module) {
		return nil
	}
	loc := rules.NewTaskLocation(file.Path, task)

	if strings.Count(module, ".") > 2 {
		return []rules.MatchError{rules.NewMatch(r, loc,
			"Deep plugins directory is discouraged. Move '"+module+"' directly under '/plugins/modules' folder.").
			WithTag(ID + "[deep]")}
	}
	if strings.Contains(module, ".") {
		return nil
	}

	if ansible.IsBuiltin(module) {
		return []rules.MatchError{rules.NewMatch(r, loc,
			fmt.Sprintf("Use FQCN for builtin module actions (%s).", module)).
			WithTag(ID + "[action-core]").
			WithDetails(fmt.Sprintf("Use `ansible.builtin.%s` or `ansible.legacy.%s` instead.", module, module))}
	}
	return []rules.MatchError{rules.NewMatch(r, loc,
		fmt.Sprintf("Use FQCN for module actions, such `<namespace>.<collection>.%s`.", module)).
		WithTag(ID + "[action]")}
}

func init() {
	rules.Register(New())
}
