// Package partialbecome implements partial-become.
//
// become_user has no effect unless become is enabled on the same object or
// inherited from an enclosing play or block.
package partialbecome

import (
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// ID is the rule identifier.
const ID = "partial-become"

// Rule implements partial-become.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "become_user should have a corresponding become at the play or task level.",
		Description:      "become_user should have a corresponding become at the play or task level.",
		Severity:         rules.SeverityVeryHigh,
		Tags:             []string{"unpredictability"},
		Link:             rules.DocURL(ID),
		Version:          "v6.18.0",
	}
}

// MatchPlay checks the play and every task or block below it, carrying the
// inherited become setting down the tree.
func (r *Rule) MatchPlay(_ *rules.RunContext, file *lintable.Lintable, play *ansible.Play) []rules.MatchError {
	if file.Kind() != lintable.KindPlaybook || play.IsImport() {
		return nil
	}
	doc, err := file.Document()
	if err != nil {
		return nil
	}

	var out []rules.MatchError
	become := enabled(play.Node, false)
	if play.Get("become_user") != nil && !become && !rules.PlaySkipped(play, ID, ID+"[play]") {
		out = append(out, rules.NewMatch(r, rules.NewLineLocation(file.Path, play.Line), "").
			WithTag(ID+"[play]"))
	}

	w := walker{rule: r, doc: doc, file: file.Path}
	for _, section := range ansible.PlaySections {
		w.walk(play.Get(section), become)
	}
	return append(out, w.out...)
}

type walker struct {
	rule *Rule
	doc  *ansible.Document
	file string
	out  []rules.MatchError
}

func (w *walker) walk(seq *yaml.Node, inherited bool) {
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return
	}
	for _, n := range seq.Content {
		if n.Kind != yaml.MappingNode {
			continue
		}
		become := enabled(n, inherited)
		if ansible.MapGet(n, "become_user") != nil && !become {
			w.report(n)
		}
		for _, section := range ansible.BlockSections {
			w.walk(ansible.MapGet(n, section), become)
		}
	}
}

func (w *walker) report(n *yaml.Node) {
	tag := ID + "[task]"
	skips := w.doc.SkipsBetween(n.Line, w.doc.EndLine(n), nil)
	if slices.Contains(skips, ID) || slices.Contains(skips, tag) {
		return
	}
	w.out = append(w.out, rules.NewMatch(w.rule, rules.NewNodeLocation(w.file, n), "").WithTag(tag))
}

// enabled returns the become value set on n, or inherited when n does not
// set it.
func enabled(n *yaml.Node, inherited bool) bool {
	v := ansible.MapGet(n, "become")
	if v == nil {
		return inherited
	}
	return ansible.IsTruthy(v)
}

func init() {
	rules.Register(New())
}
