package runner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
)

// skippedDirs are never descended into during discovery.
var skippedDirs = []string{".git", ".cache", ".tox", ".venv", "node_modules", "__pycache__"}

// excluder decides which discovered paths are dropped.
type excluder struct {
	// patterns are exclude_paths entries, normalized.
	patterns []string
	// matcher holds the .gitignore patterns and exclude_paths with
	// negations.
	matcher *patternmatcher.PatternMatcher
}

func newExcluder(projectDir string, excludes []string) (*excluder, error) {
	e := &excluder{}
	for _, p := range excludes {
		p = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(p)), "/")
		e.patterns = append(e.patterns, p)
	}

	gitignore, err := loadGitignore(projectDir)
	if err != nil {
		return nil, err
	}
	patterns := slices.Clone(gitignore)
	for _, p := range excludes {
		if strings.HasPrefix(p, "!") {
			patterns = append(patterns, p)
		}
	}
	if e.matcher, err = newMatcher(patterns); err != nil {
		return nil, err
	}
	return e, nil
}

// excluded reports whether path, normalized and relative to the project
// directory, is excluded by prefix, glob or ignore pattern.
func (e *excluder) excluded(path string) bool {
	for _, p := range e.patterns {
		if strings.HasPrefix(p, "!") {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
		if ok, err := doublestar.Match(p, path); err == nil && ok {
			return true
		}
	}
	if e.matcher != nil {
		ok, err := e.matcher.MatchesOrParentMatches(filepath.FromSlash(path))
		return err == nil && ok
	}
	return false
}

// discover walks root and returns the lintables of known kind below it,
// including role directories.
func (r *Runner) discover(root string) ([]*lintable.Lintable, error) {
	var out []*lintable.Lintable
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				logrus.Warnf("skipping %s: %v", p, err)
				return nil
			}
			return err
		}
		rel := r.relPath(p)
		if p != root && r.excluder.excluded(rel) {
			logrus.Debugf("excluded %s", rel)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p != root && slices.Contains(skippedDirs, d.Name()) {
				return filepath.SkipDir
			}
			l := lintable.New(p, lintable.WithKinds(r.kinds))
			if l.Kind() == lintable.KindRole {
				out = append(out, l)
			}
			return nil
		}

		l := lintable.New(p, lintable.WithKinds(r.kinds))
		if l.Kind() == lintable.KindUnknown {
			return nil
		}
		out = append(out, l)
		return nil
	})
	return out, err
}

// entryPoints turns the command line paths into lintables. Directories are
// walked unless they are roles; missing paths are returned as lintables so
// that checking them reports load-failure[not-found].
func (r *Runner) entryPoints(paths []string) ([]*lintable.Lintable, error) {
	if len(paths) == 0 {
		paths = []string{r.projectDir}
	}

	var out []*lintable.Lintable
	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case err != nil:
			out = append(out, lintable.New(p, lintable.WithKinds(r.kinds)))
		case info.IsDir():
			l := lintable.New(p, lintable.WithKinds(r.kinds))
			if l.Kind() == lintable.KindRole {
				out = append(out, l)
				continue
			}
			found, err := r.discover(p)
			if err != nil {
				return nil, err
			}
			out = append(out, found...)
		default:
			if r.excluder.excluded(r.relPath(p)) {
				logrus.Debugf("excluded %s", p)
				continue
			}
			out = append(out, lintable.New(p, lintable.WithKinds(r.kinds)))
		}
	}
	return out, nil
}

// relPath returns p relative to the project directory with forward slashes.
func (r *Runner) relPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(r.absProjectDir, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
