package rules

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
)

// Options selects the rules of a Collection.
type Options struct {
	// Tags restricts the run to rules whose id or tags are listed.
	Tags []string
	// SkipList removes rules (by id or tag) and matches (by tag).
	SkipList []string
	// EnableList turns on opt-in rules.
	EnableList []string
}

// Collection is the set of rules taking part in one run.
type Collection struct {
	all    []Rule
	active []Rule
	opts   Options
}

// NewCollection selects the rules of reg that participate under opts.
func NewCollection(reg *Registry, opts Options) *Collection {
	c := &Collection{all: reg.All(), opts: opts}
	for _, r := range c.all {
		if c.participates(r.Metadata()) {
			c.active = append(c.active, r)
		}
	}
	return c
}

func intersects(a, b []string) bool {
	return slices.ContainsFunc(a, func(s string) bool { return slices.Contains(b, s) })
}

func (c *Collection) participates(md RuleMetadata) bool {
	names := md.Names()
	if md.HasTag(TagUnskippable) {
		return true
	}
	if intersects(names, c.opts.SkipList) {
		return false
	}
	tagged := len(c.opts.Tags) > 0 && intersects(names, c.opts.Tags)
	if len(c.opts.Tags) > 0 && !tagged {
		return false
	}
	if md.HasTag(TagOptIn) {
		return tagged || intersects(names, c.opts.EnableList)
	}
	return true
}

// Rules returns the participating rules sorted by id.
func (c *Collection) Rules() []Rule {
	return c.active
}

// All returns every known rule sorted by id, participating or not.
func (c *Collection) All() []Rule {
	return c.all
}

// IsActive reports whether the rule with id participates in the run.
func (c *Collection) IsActive(id string) bool {
	return slices.ContainsFunc(c.active, func(r Rule) bool { return r.Metadata().ID == id })
}

// Only returns a collection running just the participating rules with the
// given ids.
func (c *Collection) Only(ids ...string) *Collection {
	return c.subset(func(id string) bool { return slices.Contains(ids, id) })
}

// Without returns a collection running the participating rules except those
// with the given ids.
func (c *Collection) Without(ids ...string) *Collection {
	return c.subset(func(id string) bool { return !slices.Contains(ids, id) })
}

func (c *Collection) subset(keep func(id string) bool) *Collection {
	out := &Collection{all: c.all, opts: c.opts}
	for _, r := range c.active {
		if keep(r.Metadata().ID) {
			out.active = append(out.active, r)
		}
	}
	return out
}

// Empty reports whether no rule participates.
func (c *Collection) Empty() bool {
	return len(c.active) == 0
}

// ValidateOptions checks user options against every configurable rule they
// name. Options for unknown rules are ignored.
func (c *Collection) ValidateOptions(opts map[string]map[string]any) error {
	var errs []error
	for _, r := range c.all {
		id := r.Metadata().ID
		o, ok := opts[id]
		if !ok {
			continue
		}
		if cr, ok := r.(ConfigurableRule); ok {
			if err := cr.ValidateConfig(o); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
			}
		}
	}
	return errors.Join(errs...)
}

// ListTags maps every tag to the ids of the rules carrying it.
func (c *Collection) ListTags() map[string][]string {
	out := make(map[string][]string)
	for _, r := range c.all {
		md := r.Metadata()
		for _, tag := range md.Tags {
			out[tag] = append(out[tag], md.ID)
		}
	}
	return out
}

// Run applies every participating rule to file and returns the matches not
// silenced by noqa comments or the skip list. A noqa entry names a rule id,
// one of its tags or a match tag. Rules run in id order, so the
// result is the same on every run.
func (c *Collection) Run(rc *RunContext, file *lintable.Lintable) []MatchError {
	kind := file.Kind()

	if kind == lintable.KindRole {
		var matches []MatchError
		for _, r := range c.active {
			if dr, ok := r.(DirRule); ok {
				matches = append(matches, fill(dr.MatchDir(rc, file), r, file, 0)...)
			}
		}
		return KeepFirstUnique(c.filter(matches, nil))
	}

	if !kind.IsYAML() {
		return nil
	}

	doc, err := file.Document()
	if err != nil {
		return []MatchError{NewLoadFailure(file.Path, err)}
	}

	tasks := tasksOf(doc, kind)
	plays := playsOf(doc, kind)

	var matches []MatchError
	for _, r := range c.active {
		md := r.Metadata()
		names := md.Names()
		unskippable := md.HasTag(TagUnskippable)

		if lr, ok := r.(LineRule); ok {
			for i, line := range doc.Lines {
				lineno := i + 1
				if strings.HasPrefix(strings.TrimSpace(line), "#") {
					continue
				}
				if !unskippable && intersects(doc.Noqa[lineno], names) {
					continue
				}
				matches = append(matches, fill(lr.MatchLine(rc, file, lineno, line), r, file, lineno)...)
			}
		}

		if yr, ok := r.(YAMLRule); ok {
			matches = append(matches, fill(yr.MatchYAML(rc, file), r, file, 0)...)
		}

		if tr, ok := r.(TaskRule); ok {
			for _, task := range tasks {
				if task.IsBlock() {
					continue
				}
				if !unskippable && (slices.Contains(task.Tags, ansible.SkipTag) || task.Skipped(names...)) {
					continue
				}
				for _, m := range fill(tr.MatchTask(rc, file, task), r, file, task.Line) {
					if !unskippable && task.Skipped(m.Tag) {
						continue
					}
					matches = append(matches, m)
				}
			}
		}

		if pr, ok := r.(PlayRule); ok {
			for _, play := range plays {
				matches = append(matches, fill(pr.MatchPlay(rc, file, play), r, file, play.Line)...)
			}
		}
	}

	return KeepFirstUnique(c.filter(matches, doc))
}

// filter drops matches whose id, tag or rule tags are named by a noqa
// comment on their line, and matches whose tag is in the skip list.
// Unskippable rules are never dropped.
func (c *Collection) filter(matches []MatchError, doc *ansible.Document) []MatchError {
	out := matches[:0]
	for _, m := range matches {
		if !slices.Contains(m.RuleTags, TagUnskippable) {
			if slices.Contains(c.opts.SkipList, m.Tag) {
				continue
			}
			if doc != nil {
				if m.HasTag(doc.Noqa[m.Line()]...) {
					continue
				}
			}
		}
		out = append(out, m)
	}
	return out
}

// fill completes matches returned by a hook with the file, line and rule
// they came from.
func fill(matches []MatchError, r Rule, file *lintable.Lintable, line int) []MatchError {
	if len(matches) == 0 {
		return nil
	}
	md := r.Metadata()
	for i := range matches {
		m := &matches[i]
		if m.Location.File == "" {
			m.Location.File = file.Path
		}
		if m.Location.Start.Line == 0 {
			m.Location.Start.Line = line
		}
		if m.RuleID == "" {
			m.RuleID = md.ID
			m.RuleTags = md.Tags
			m.Severity = md.Severity
			m.DocURL = md.Link
		}
		if m.Tag == "" {
			m.Tag = m.RuleID
		}
		if m.Message == "" {
			m.Message = md.ShortDescription
		}
		if m.Level == "" {
			m.Level = LevelError
		}
	}
	return matches
}

func tasksOf(doc *ansible.Document, kind lintable.Kind) []*ansible.Task {
	switch kind {
	case lintable.KindPlaybook:
		return ansible.PlaybookTasks(doc)
	case lintable.KindTasks:
		return ansible.FileTasks(doc, false)
	case lintable.KindHandlers:
		return ansible.FileTasks(doc, true)
	default:
		return nil
	}
}

// playsOf returns the plays of a playbook, or the top-level mapping of other
// structured kinds wrapped as a single play carrying the file's noqa skips.
func playsOf(doc *ansible.Document, kind lintable.Kind) []*ansible.Play {
	switch kind {
	case lintable.KindPlaybook:
		return ansible.Plays(doc)
	case lintable.KindTasks, lintable.KindHandlers:
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}
	return []*ansible.Play{{
		Node:    root,
		Line:    root.Line,
		Column:  root.Column,
		EndLine: doc.EndLine(root),
		Skips:   doc.AllSkips(),
	}}
}
