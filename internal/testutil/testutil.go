// Package testutil provides helpers for rule tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// File creates an in-memory Lintable of the given kind.
func File(t testing.TB, name string, kind lintable.Kind, content string) *lintable.Lintable {
	t.Helper()
	return lintable.New(name, lintable.WithKind(kind), lintable.WithContent([]byte(content)))
}

// WriteFiles creates files under dir, keyed by slash-separated relative path.
func WriteFiles(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// RunRule runs a single rule, opt-in or not, against file through the
// regular collection engine and returns the sorted matches.
func RunRule(t testing.TB, rule rules.Rule, file *lintable.Lintable, opts ...rules.RunOption) []rules.MatchError {
	t.Helper()

	reg := rules.NewRegistry()
	require.NoError(t, reg.Register(rule))
	c := rules.NewCollection(reg, rules.Options{EnableList: []string{rule.Metadata().ID}})
	return rules.SortAndDedup(c.Run(rules.NewRunContext(context.Background(), opts...), file))
}

// Tags returns the tag of each match.
func Tags(matches []rules.MatchError) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Tag)
	}
	return out
}

// Lines returns the line of each match.
func Lines(matches []rules.MatchError) []int {
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Line())
	}
	return out
}
