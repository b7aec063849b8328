// Package riskyshellpipe implements risky-shell-pipe.
package riskyshellpipe

import (
	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	"github.com/tinovyatkin/ansible-lint/internal/shell"
)

// ID is the rule identifier.
const ID = "risky-shell-pipe"

// Rule flags shell pipelines run without pipefail, whose failures would be
// hidden by the exit status of the last command.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Shells that use pipes should set the pipefail option.",
		Description: "Without the pipefail option set, a shell command that implements a pipeline " +
			"can fail and still return 0. If any part of the pipeline other than the terminal " +
			"command fails, the whole pipeline will still return 0, which may be considered a " +
			"success by Ansible. Pipefail is available in the bash shell.",
		Severity: rules.SeverityMedium,
		Tags:     []string{"command-shell"},
		Link:     rules.DocURL(ID),
		Version:  "v4.1.0",
	}
}

func (r *Rule) MatchTask(_ *rules.RunContext, file *lintable.Lintable, task *ansible.Task) []rules.MatchError {
	if task.Module() != "shell" {
		return nil
	}
	if ansible.IsTruthy(task.Get("ignore_errors")) {
		return nil
	}

	cmd := ansible.Unjinja(task.CommandLine())
	if !shell.HasPipes(cmd) || shell.SetsPipefail(cmd) {
		return nil
	}
	return []rules.MatchError{rules.NewMatch(r, rules.NewTaskLocation(file.Path, task), "")}
}

func init() {
	rules.Register(New())
}
