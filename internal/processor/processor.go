// Package processor provides the match post-processing pipeline.
//
// Matches flow through a sequence of processors, each transforming the
// slice (filtering, modifying, or annotating). Inline noqa comments are
// applied earlier, by the rule collection, because they need the parsed
// document.
//
// Standard pipeline order:
//  1. SkipListFilter - Remove matches whose tag is skipped
//  2. IgnoreFile - Mark or remove matches listed in the ignore file
//  3. WarnList - Demote warn-listed matches to warnings
//  4. Deduplication - Remove duplicate matches
//  5. Sorting - Stable output ordering
package processor

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/tinovyatkin/ansible-lint/internal/ignore"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// DefaultWarnList is used when the configuration sets no warn list.
var DefaultWarnList = []string{"experimental", "jinja[spacing]", "fqcn[deep]"}

// Processor transforms a slice of matches.
type Processor interface {
	// Name returns the processor's identifier (for debugging/logging).
	Name() string

	// Process applies the processor's logic to matches. It must not modify
	// the input slice.
	Process(matches []rules.MatchError, ctx *Context) []rules.MatchError
}

// Context provides shared state for processors.
type Context struct {
	// ProjectDir is the directory ignore-file paths are relative to.
	ProjectDir string

	// SkipList names rule ids and tags to drop.
	SkipList []string

	// WarnList names rule ids and tags reported as warnings.
	WarnList []string

	// Ignore is the loaded ignore file, possibly empty.
	Ignore *ignore.File
}

// RelPath returns file relative to the project directory with forward
// slashes, or file unchanged when it lies outside.
func (ctx *Context) RelPath(file string) string {
	if ctx.ProjectDir == "" {
		return file
	}
	abs, err := filepath.Abs(filepath.FromSlash(file))
	if err != nil {
		return file
	}
	root, err := filepath.Abs(ctx.ProjectDir)
	if err != nil {
		return file
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return file
	}
	return filepath.ToSlash(rel)
}

// Chain runs processors in sequence.
type Chain struct {
	processors []Processor
}

// NewChain creates a new processor chain.
func NewChain(processors ...Processor) *Chain {
	return &Chain{processors: processors}
}

// Default returns the standard chain.
func Default() *Chain {
	return NewChain(
		NewSkipListFilter(),
		NewIgnoreFile(),
		NewWarnList(),
		NewDeduplication(),
		NewSorting(),
	)
}

// Process runs all processors in sequence.
func (c *Chain) Process(matches []rules.MatchError, ctx *Context) []rules.MatchError {
	for _, p := range c.processors {
		matches = p.Process(matches, ctx)
	}
	return matches
}

// filterMatches returns a new slice containing only matches where keep()
// returns true.
func filterMatches(matches []rules.MatchError, keep func(m rules.MatchError) bool) []rules.MatchError {
	result := make([]rules.MatchError, 0, len(matches))
	for _, m := range matches {
		if keep(m) {
			result = append(result, m)
		}
	}
	return result
}

// transformMatches returns a new slice with each match transformed.
func transformMatches(matches []rules.MatchError, transform func(m rules.MatchError) rules.MatchError) []rules.MatchError {
	result := make([]rules.MatchError, len(matches))
	for i, m := range matches {
		result[i] = transform(m)
	}
	return result
}

// SkipListFilter drops matches whose id or tag is in the skip list, except
// those of unskippable rules.
type SkipListFilter struct{}

// NewSkipListFilter creates the processor.
func NewSkipListFilter() *SkipListFilter { return &SkipListFilter{} }

// Name returns the processor's identifier.
func (p *SkipListFilter) Name() string { return "skip-list-filter" }

// Process filters matches.
func (p *SkipListFilter) Process(matches []rules.MatchError, ctx *Context) []rules.MatchError {
	if len(ctx.SkipList) == 0 {
		return matches
	}
	return filterMatches(matches, func(m rules.MatchError) bool {
		if slices.Contains(m.RuleTags, rules.TagUnskippable) {
			return true
		}
		return !slices.Contains(ctx.SkipList, m.RuleID) && !slices.Contains(ctx.SkipList, m.Tag)
	})
}

// IgnoreFile applies the ignore file.
type IgnoreFile struct{}

// NewIgnoreFile creates the processor.
func NewIgnoreFile() *IgnoreFile { return &IgnoreFile{} }

// Name returns the processor's identifier.
func (p *IgnoreFile) Name() string { return "ignore-file" }

// Process marks or removes listed matches.
func (p *IgnoreFile) Process(matches []rules.MatchError, ctx *Context) []rules.MatchError {
	return ctx.Ignore.Apply(matches, ctx.RelPath)
}

// WarnList demotes matches named by the warn list to warnings.
type WarnList struct{}

// NewWarnList creates the processor.
func NewWarnList() *WarnList { return &WarnList{} }

// Name returns the processor's identifier.
func (p *WarnList) Name() string { return "warn-list" }

// Process sets the level of warn-listed matches.
func (p *WarnList) Process(matches []rules.MatchError, ctx *Context) []rules.MatchError {
	if len(ctx.WarnList) == 0 {
		return matches
	}
	return transformMatches(matches, func(m rules.MatchError) rules.MatchError {
		if m.HasTag(ctx.WarnList...) {
			return m.WithLevel(rules.LevelWarning)
		}
		return m
	})
}

// Deduplication removes matches with the same identity.
type Deduplication struct{}

// NewDeduplication creates the processor.
func NewDeduplication() *Deduplication { return &Deduplication{} }

// Name returns the processor's identifier.
func (p *Deduplication) Name() string { return "deduplication" }

// Process keeps the first match of each identity, in input order.
func (p *Deduplication) Process(matches []rules.MatchError, _ *Context) []rules.MatchError {
	seen := make(map[rules.MatchKey]struct{}, len(matches))
	return filterMatches(matches, func(m rules.MatchError) bool {
		k := m.Key()
		if _, ok := seen[k]; ok {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
}

// Sorting orders matches by their identity.
type Sorting struct{}

// NewSorting creates the processor.
func NewSorting() *Sorting { return &Sorting{} }

// Name returns the processor's identifier.
func (p *Sorting) Name() string { return "sorting" }

// Process returns the matches sorted.
func (p *Sorting) Process(matches []rules.MatchError, _ *Context) []rules.MatchError {
	out := slices.Clone(matches)
	slices.SortStableFunc(out, rules.Compare)
	return out
}
