// Package commandmodule implements command-instead-of-module.
// It flags command and shell tasks that run a program for which Ansible
// ships a dedicated module.
package commandmodule

import (
	"fmt"
	"slices"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	"github.com/tinovyatkin/ansible-lint/internal/shell"
)

// ID is the rule identifier.
const ID = "command-instead-of-module"

// modules maps executables to the module that should replace them.
var modules = map[string]string{
	"apt-get":     "apt-get",
	"chkconfig":   "service",
	"curl":        "get_url or uri",
	"git":         "git",
	"hg":          "hg",
	"letsencrypt": "acme_certificate",
	"mktemp":      "tempfile",
	"mount":       "mount",
	"patch":       "patch",
	"rpm":         "yum or rpm_key",
	"service":     "service",
	"svn":         "subversion",
	"systemctl":   "systemd",
	"tar":         "unarchive",
	"unzip":       "unarchive",
	"wget":        "get_url or uri",
	"yum":         "yum",
}

// executableOptions are subcommands with no module equivalent.
var executableOptions = map[string][]string{
	"git":       {"branch", "log", "lfs", "rev-parse"},
	"systemctl": {"--version", "get-default", "kill", "set-default", "set-property", "show-environment", "status", "reset-failed"},
	"yum":       {"clean", "history", "info"},
	"rpm":       {"--nodeps"},
}

// Rule implements command-instead-of-module.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Using command rather than module.",
		Description:      "Executing a command when there is an Ansible module is generally a bad idea",
		Severity:         rules.SeverityHigh,
		Tags:             []string{"command-shell", "idiom"},
		Link:             rules.DocURL(ID),
		Version:          "historic",
	}
}

// MatchTask checks the first program run by command and shell tasks.
func (r *Rule) MatchTask(_ *rules.RunContext, file *lintable.Lintable, task *ansible.Task) []rules.MatchError {
	switch task.Module() {
	case "command", "shell":
	default:
		return nil
	}
	if warn, ok := task.Args["warn"].(bool); ok && !warn {
		return nil
	}

	cmds := shell.Commands(ansible.Unjinja(task.CommandLine()))
	if len(cmds) == 0 {
		return nil
	}
	first := cmds[0]

	module, ok := modules[first.Name]
	if !ok {
		return nil
	}
	if len(first.Args) > 0 && slices.Contains(executableOptions[first.Name], first.Args[0]) {
		return nil
	}

	return []rules.MatchError{rules.NewMatch(r, rules.NewTaskLocation(file.Path, task),
		fmt.Sprintf("%s used in place of %s module", first.Name, module))}
}

func init() {
	rules.Register(New())
}
