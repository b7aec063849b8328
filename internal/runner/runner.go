// Package runner discovers the files of an Ansible project, follows their
// includes and runs the rule collection on each of them once.
package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/processor"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	"github.com/tinovyatkin/ansible-lint/internal/rules/syntaxcheck"
)

// ErrNoFilesMatched is returned when discovery finds nothing to lint.
var ErrNoFilesMatched = errors.New("no files matched")

// Runner checks a set of entry points and everything they reference.
type Runner struct {
	collection *rules.Collection
	rc         *rules.RunContext

	projectDir    string
	absProjectDir string
	kinds         []lintable.KindPattern
	excludes      []string
	excluder      *excluder
	checked       *CheckedSet
	concurrency   int

	chain    *processor.Chain
	chainCtx *processor.Context
}

// Option configures a Runner.
type Option func(*Runner)

// WithProjectDir sets the project root used for discovery and relative paths.
func WithProjectDir(dir string) Option {
	return func(r *Runner) { r.projectDir = dir }
}

// WithExcludes drops paths matching any of patterns (prefixes or globs).
func WithExcludes(patterns []string) Option {
	return func(r *Runner) { r.excludes = patterns }
}

// WithKinds adds kind patterns evaluated before the defaults.
func WithKinds(patterns []lintable.KindPattern) Option {
	return func(r *Runner) { r.kinds = append(patterns, lintable.DefaultKinds...) }
}

// WithChecked shares a checked set with other runs.
func WithChecked(s *CheckedSet) Option {
	return func(r *Runner) { r.checked = s }
}

// WithConcurrency bounds the number of files checked in parallel.
func WithConcurrency(n int) Option {
	return func(r *Runner) { r.concurrency = n }
}

// WithProcessors post-processes the matches of the run.
func WithProcessors(chain *processor.Chain, ctx *processor.Context) Option {
	return func(r *Runner) {
		r.chain = chain
		r.chainCtx = ctx
	}
}

// New creates a runner for collection.
func New(collection *rules.Collection, rc *rules.RunContext, opts ...Option) (*Runner, error) {
	r := &Runner{
		collection:  collection,
		rc:          rc,
		projectDir:  rc.ProjectDir,
		kinds:       lintable.DefaultKinds,
		concurrency: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.projectDir == "" {
		r.projectDir = "."
	}
	if r.checked == nil {
		r.checked = NewCheckedSet()
	}
	if r.concurrency < 1 {
		r.concurrency = 1
	}

	abs, err := filepath.Abs(r.projectDir)
	if err != nil {
		return nil, err
	}
	r.absProjectDir = abs
	if r.excluder, err = newExcluder(r.projectDir, r.excludes); err != nil {
		return nil, err
	}
	return r, nil
}

// Checked returns the set of paths visited so far.
func (r *Runner) Checked() *CheckedSet {
	return r.checked
}

// Run lints paths, or the project directory when paths is empty, and every
// file they reference. Files are checked in parallel, one level of
// references at a time; each normalized path is checked once.
func (r *Runner) Run(ctx context.Context, paths []string) ([]rules.MatchError, error) {
	entries, err := r.entryPoints(paths)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNoFilesMatched
	}

	syntax := r.collection.Only(syntaxcheck.ID)
	rest := r.collection.Without(syntaxcheck.ID)

	var (
		mu      sync.Mutex
		matches []rules.MatchError
	)
	level := entries
	for len(level) > 0 {
		var next []*lintable.Lintable

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for _, l := range level {
			if !r.checked.Add(l.Path) {
				continue
			}
			if r.excluder.excluded(r.relPath(l.Path)) {
				logrus.Debugf("excluded %s", l.Path)
				continue
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				found, children := r.check(l, syntax, rest)
				mu.Lock()
				defer mu.Unlock()
				matches = append(matches, found...)
				next = append(next, children...)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		level = next
	}

	matches = rules.KeepFirstUnique(matches)
	if r.chain != nil {
		return r.chain.Process(matches, r.chainCtx), nil
	}
	return rules.SortAndDedup(matches), nil
}

// check runs the rules on one lintable and returns its matches and the
// lintables it references.
func (r *Runner) check(l *lintable.Lintable, syntax, rest *rules.Collection) ([]rules.MatchError, []*lintable.Lintable) {
	logrus.Debugf("checking %s", l)

	if _, err := os.Stat(filepath.FromSlash(l.Path)); err != nil {
		return []rules.MatchError{rules.NewLoadFailure(l.Path, err)}, nil
	}

	if l.Kind() == lintable.KindPlaybook && !syntax.Empty() {
		if found := syntax.Run(r.rc, l); len(found) > 0 {
			return found, nil
		}
	}
	found := rest.Run(r.rc, l)

	refs, failures := r.children(l)
	found = append(found, failures...)
	children := make([]*lintable.Lintable, 0, len(refs))
	for _, c := range refs {
		children = append(children, c.lintable)
	}
	return found, children
}
