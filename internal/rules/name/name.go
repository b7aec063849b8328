// Package name implements the name rule for task and play names.
package name

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// ID is the rule identifier.
const ID = "name"

// Rule checks that plays and tasks are named, that names start with an
// uppercase letter, and that templates only appear at the end of a name.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Rule for checking task and play names.",
		Description: "All tasks and plays should have a distinct name for readability " +
			"and for ``--start-at-task`` to work",
		Severity: rules.SeverityMedium,
		Tags:     []string{"idiom"},
		Link:     rules.DocURL(ID),
		Version:  "v6.9.1",
	}
}

// MatchPlay reports unnamed plays. Imported playbooks carry no name.
func (r *Rule) MatchPlay(_ *rules.RunContext, file *lintable.Lintable, play *ansible.Play) []rules.MatchError {
	if file.Kind() != lintable.KindPlaybook || play.IsImport() {
		return nil
	}
	loc := rules.NewLineLocation(file.Path, play.Line)

	if play.Name == "" {
		if rules.PlaySkipped(play, ID, ID+"[play]") {
			return nil
		}
		return []rules.MatchError{rules.NewMatch(r, loc, "All plays should be named.").WithTag(ID + "[play]")}
	}

	var out []rules.MatchError
	for _, m := range r.checkName(play.Name, loc) {
		if !rules.PlaySkipped(play, ID, m.Tag) {
			out = append(out, m)
		}
	}
	return out
}

func (r *Rule) MatchTask(_ *rules.RunContext, file *lintable.Lintable, task *ansible.Task) []rules.MatchError {
	loc := rules.NewTaskLocation(file.Path, task)
	if task.Name == "" {
		return []rules.MatchError{rules.NewMatch(r, loc, "All tasks should be named.").WithTag(ID + "[missing]")}
	}
	return r.checkName(task.Name, loc)
}

func (r *Rule) checkName(name string, loc rules.Location) []rules.MatchError {
	var out []rules.MatchError

	first, _ := utf8.DecodeRuneInString(name)
	if unicode.IsLower(first) {
		out = append(out, rules.NewMatch(r, loc, "All names should start with an uppercase letter.").
			WithTag(ID+"[casing]"))
	}

	if strings.Contains(name, "{{") && !strings.HasSuffix(strings.TrimSpace(name), "}}") {
		out = append(out, rules.NewMatch(r, loc, "Jinja templates should only be at the end of 'name'").
			WithTag(ID+"[template]"))
	}
	return out
}

func init() {
	rules.Register(New())
}
