package rules

import (
	"cmp"
	"errors"
	"slices"
	"strings"
)

// ErrMissingMessageAndRule is returned when a MatchError is built with
// neither a message nor a rule.
var ErrMissingMessageAndRule = errors.New("a match requires a message or a rule")

// Level is the reporting level of a match.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// MatchError is one violation found by a rule.
type MatchError struct {
	// Location specifies where the violation occurred.
	Location Location `json:"location"`

	// Message is a human-readable description of the issue.
	Message string `json:"message"`

	// Details provides additional context (optional).
	Details string `json:"details,omitempty"`

	// RuleID is the id of the rule that produced the match.
	RuleID string `json:"rule"`

	// Tag distinguishes variants of one rule, e.g. "fqcn[action-core]".
	// Defaults to RuleID.
	Tag string `json:"tag"`

	// RuleTags are the grouping tags of the producing rule.
	RuleTags []string `json:"-"`

	// Severity is the producing rule's severity.
	Severity Severity `json:"severity,omitempty"`

	// DocURL links to documentation about the rule (optional).
	DocURL string `json:"docUrl,omitempty"`

	// Level is "error" unless the warn list demoted the match.
	Level Level `json:"level"`

	// Ignored is set when the ignore file lists the match. Ignored matches
	// are reported but do not fail the run.
	Ignored bool `json:"ignored,omitempty"`

	// Unique, when set, limits the rule to one match per key for the whole
	// run. See KeepFirstUnique.
	Unique string `json:"-"`
}

// NewMatchError creates a match. At least one of message and rule is
// required; with only a rule, the rule's short description is the message.
func NewMatchError(loc Location, rule Rule, message string) (MatchError, error) {
	if message == "" && rule == nil {
		return MatchError{}, ErrMissingMessageAndRule
	}

	m := MatchError{
		Location: loc,
		Message:  message,
		Level:    LevelError,
	}
	if rule != nil {
		md := rule.Metadata()
		m.RuleID = md.ID
		m.Tag = md.ID
		m.RuleTags = md.Tags
		m.Severity = md.Severity
		m.DocURL = md.Link
		if m.Message == "" {
			m.Message = md.ShortDescription
		}
	}
	return m, nil
}

// NewMatch creates a match for rule. rule must not be nil.
func NewMatch(rule Rule, loc Location, message string) MatchError {
	m, err := NewMatchError(loc, rule, message)
	if err != nil {
		panic(err)
	}
	return m
}

// WithTag sets the sub-variant tag, e.g. WithTag("fqcn[action-core]").
func (m MatchError) WithTag(tag string) MatchError {
	m.Tag = tag
	return m
}

// WithDetails adds a detail message to the match.
func (m MatchError) WithDetails(details string) MatchError {
	m.Details = details
	return m
}

// WithColumn sets the 1-based column.
func (m MatchError) WithColumn(col int) MatchError {
	m.Location.Start.Column = col
	return m
}

// WithLine sets the 1-based line.
func (m MatchError) WithLine(line int) MatchError {
	m.Location.Start.Line = line
	return m
}

// WithLevel sets the reporting level.
func (m MatchError) WithLevel(level Level) MatchError {
	m.Level = level
	return m
}

// WithUnique reports the match only once per run for key.
func (m MatchError) WithUnique(key string) MatchError {
	m.Unique = key
	return m
}

// WithIgnored marks the match as listed in the ignore file.
func (m MatchError) WithIgnored() MatchError {
	m.Ignored = true
	return m
}

// File returns the file path from the location.
func (m MatchError) File() string {
	return m.Location.File
}

// Line returns the 1-based line, 0 for whole-file matches.
func (m MatchError) Line() int {
	return m.Location.Start.Line
}

// Column returns the 1-based column, 0 when unknown.
func (m MatchError) Column() int {
	return m.Location.Start.Column
}

// MatchKey is the identity of a match, used for ordering and dedup.
type MatchKey struct {
	File    string
	Line    int
	Column  int
	RuleID  string
	Tag     string
	Message string
	Details string
}

// Key returns the identity tuple of the match.
func (m MatchError) Key() MatchKey {
	return MatchKey{
		File:    m.Location.File,
		Line:    m.Location.Start.Line,
		Column:  m.Location.Start.Column,
		RuleID:  m.RuleID,
		Tag:     m.Tag,
		Message: m.Message,
		Details: m.Details,
	}
}

// Compare orders matches by file, line, column, rule id, tag, message and
// details. It is a total order consistent with Equal.
func Compare(a, b MatchError) int {
	ka, kb := a.Key(), b.Key()
	return cmp.Or(
		strings.Compare(ka.File, kb.File),
		cmp.Compare(ka.Line, kb.Line),
		cmp.Compare(ka.Column, kb.Column),
		strings.Compare(ka.RuleID, kb.RuleID),
		strings.Compare(ka.Tag, kb.Tag),
		strings.Compare(ka.Message, kb.Message),
		strings.Compare(ka.Details, kb.Details),
	)
}

// Less reports whether m sorts before other.
func (m MatchError) Less(other MatchError) bool {
	return Compare(m, other) < 0
}

// Equal reports whether both matches have the same identity.
func (m MatchError) Equal(other MatchError) bool {
	return m.Key() == other.Key()
}

// HasTag reports whether the match's id, tag or rule tags contain any of
// names.
func (m MatchError) HasTag(names ...string) bool {
	for _, n := range names {
		if n == m.RuleID || n == m.Tag || slices.Contains(m.RuleTags, n) {
			return true
		}
	}
	return false
}

// SortAndDedup sorts matches and drops duplicates. When duplicates differ in
// Ignored or Level, the first one after sorting is kept.
func SortAndDedup(matches []MatchError) []MatchError {
	out := slices.Clone(matches)
	slices.SortStableFunc(out, Compare)
	return slices.CompactFunc(out, MatchError.Equal)
}

type uniqueKey struct {
	rule, key string
}

// KeepFirstUnique keeps, for each rule and Unique key, only the match that
// sorts first. Matches without a Unique key and the relative order of the
// result are left as they are, so the outcome does not depend on the order
// files were checked in.
func KeepFirstUnique(matches []MatchError) []MatchError {
	first := make(map[uniqueKey]MatchError)
	for _, m := range matches {
		if m.Unique == "" {
			continue
		}
		k := uniqueKey{m.RuleID, m.Unique}
		if cur, ok := first[k]; !ok || Compare(m, cur) < 0 {
			first[k] = m
		}
	}
	if len(first) == 0 {
		return matches
	}

	out := make([]MatchError, 0, len(matches))
	for _, m := range matches {
		if m.Unique != "" {
			k := uniqueKey{m.RuleID, m.Unique}
			kept, ok := first[k]
			if !ok || !kept.Equal(m) {
				continue
			}
			delete(first, k)
		}
		out = append(out, m)
	}
	return out
}
