// Package nochangedwhen implements no-changed-when.
//
// Command-like modules always report "changed". Tasks running them should
// say when a change really happened (changed_when), only run when needed
// (when) or declare the files they create or remove.
package nochangedwhen

import (
	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// ID is the rule identifier.
const ID = "no-changed-when"

var commandModules = map[string]bool{
	"command": true,
	"shell":   true,
	"raw":     true,
}

// Rule implements no-changed-when.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Commands should not change things if nothing needs doing.",
		Description:      "Commands should either read information (and thus set changed_when) or not do something if it has already been done (using creates/removes) or only do it if another check has a particular result (when).",
		Severity:         rules.SeverityHigh,
		Tags:             []string{"command-shell", "idempotency"},
		Link:             rules.DocURL(ID),
		Version:          "historic",
	}
}

func (r *Rule) MatchTask(_ *rules.RunContext, file *lintable.Lintable, task *ansible.Task) []rules.MatchError {
	if task.Type != ansible.TypeTask || !commandModules[task.Module()] {
		return nil
	}
	for _, key := range []string{"changed_when", "when"} {
		if task.Has(key) {
			return nil
		}
	}
	for _, key := range []string{"creates", "removes"} {
		if _, ok := task.Args[key]; ok {
			return nil
		}
	}
	return []rules.MatchError{rules.NewMatch(r, rules.NewTaskLocation(file.Path, task), "")}
}

func init() {
	rules.Register(New())
}
