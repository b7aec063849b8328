// Package notabs implements no-tabs: task arguments should not contain
// literal tab characters.
package notabs

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// ID is the rule identifier.
const ID = "no-tabs"

// allowed lists (module, argument) pairs where tabs are meaningful.
var allowed = [][2]string{
	{"lineinfile", "insertafter"},
	{"lineinfile", "insertbefore"},
	{"lineinfile", "regexp"},
	{"lineinfile", "line"},
	{"community.general.ini_file", "value"},
}

// Rule implements no-tabs.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Most files should not contain tabs.",
		Description:      "Tabs can cause unexpected display issues, use spaces",
		Severity:         rules.SeverityLow,
		Tags:             []string{"formatting"},
		Link:             rules.DocURL(ID),
		Version:          "v4.0.0",
	}
}

func (r *Rule) MatchTask(_ *rules.RunContext, file *lintable.Lintable, task *ansible.Task) []rules.MatchError {
	keys := make([]string, 0, len(task.Args))
	for k := range task.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []rules.MatchError
	for _, k := range keys {
		s, ok := task.Args[k].(string)
		if !ok || !strings.Contains(s, "\t") {
			continue
		}
		if slices.Contains(allowed, [2]string{task.Module(), k}) {
			continue
		}
		out = append(out, rules.NewMatch(r, rules.NewTaskLocation(file.Path, task), "").
			WithDetails(fmt.Sprintf("%s contains a tab character", k)))
	}
	return out
}

func init() {
	rules.Register(New())
}
