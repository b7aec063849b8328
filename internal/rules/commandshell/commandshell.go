// Package commandshell implements command-instead-of-shell.
package commandshell

import (
	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	"github.com/tinovyatkin/ansible-lint/internal/shell"
)

// ID is the rule identifier.
const ID = "command-instead-of-shell"

// Rule flags shell tasks whose command line uses no shell feature.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Use shell only when shell functionality is required.",
		Description: "Shell should only be used when piping, redirecting or chaining commands " +
			"(and Ansible would be preferred for some of those!)",
		Severity: rules.SeverityHigh,
		Tags:     []string{"command-shell", "idiom"},
		Link:     rules.DocURL(ID),
		Version:  "historic",
	}
}

func (r *Rule) MatchTask(_ *rules.RunContext, file *lintable.Lintable, task *ansible.Task) []rules.MatchError {
	if task.Module() != "shell" {
		return nil
	}
	// A custom interpreter may rely on the shell module.
	if _, ok := task.Args["executable"]; ok {
		return nil
	}

	cmd := ansible.Unjinja(task.CommandLine())
	if cmd == "" || shell.NeedsShell(cmd) {
		return nil
	}
	return []rules.MatchError{rules.NewMatch(r, rules.NewTaskLocation(file.Path, task), "")}
}

func init() {
	rules.Register(New())
}
