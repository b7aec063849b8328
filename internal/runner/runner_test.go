package runner

import (
	"context"
	"os"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinovyatkin/ansible-lint/internal/ignore"
	"github.com/tinovyatkin/ansible-lint/internal/processor"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	"github.com/tinovyatkin/ansible-lint/internal/rules/fqcn"
	"github.com/tinovyatkin/ansible-lint/internal/rules/rolename"
	"github.com/tinovyatkin/ansible-lint/internal/testutil"
)

// project creates files in a temporary directory and makes it the working
// directory, so that lintable paths are relative to it.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, files)
	t.Chdir(dir)
	return dir
}

func newRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	reg := rules.NewRegistry()
	require.NoError(t, reg.Register(fqcn.New(), rules.LoadFailure))
	c := rules.NewCollection(reg, rules.Options{})
	rc := rules.NewRunContext(context.Background(), rules.WithProjectDir("."))
	r, err := New(c, rc, opts...)
	require.NoError(t, err)
	return r
}

type found struct {
	file string
	line int
	tag  string
}

func summarize(matches []rules.MatchError) []found {
	out := make([]found, 0, len(matches))
	for _, m := range matches {
		out = append(out, found{m.File(), m.Line(), m.Tag})
	}
	return out
}

func TestRunMissingInclude(t *testing.T) {
	project(t, map[string]string{
		"a.yml": `- hosts: all
  tasks:
    - name: Include
      ansible.builtin.include_tasks: missing.yml
`,
		"b.yml": `- hosts: all
  tasks:
    - name: Run
      command: echo hi
`,
	})

	matches, err := newRunner(t).Run(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, []found{
		{"a.yml", 3, "load-failure[not-found]"},
		{"b.yml", 3, "fqcn[action-core]"},
	}, summarize(matches))
	assert.Contains(t, matches[0].Message, "missing.yml")
}

func TestRunSharedIncludeCheckedOnce(t *testing.T) {
	project(t, map[string]string{
		"one.yml": `- hosts: all
  tasks:
    - name: Common
      ansible.builtin.import_tasks: tasks/common.yml
`,
		"two.yml": `- hosts: all
  tasks:
    - name: Common
      ansible.builtin.include_tasks: tasks/common.yml
`,
		"tasks/common.yml": `- name: Shell
  shell: echo hi
`,
	})

	r := newRunner(t)
	matches, err := r.Run(t.Context(), []string{"one.yml", "two.yml"})
	require.NoError(t, err)
	assert.Equal(t, []found{{"tasks/common.yml", 1, "fqcn[action-core]"}}, summarize(matches))
	assert.True(t, r.Checked().Contains("tasks/common.yml"))
}

func TestRunSharedRoleReportedAtFirstLocation(t *testing.T) {
	files := make(map[string]string)
	var paths []string
	for i := range 8 {
		name := fmt.Sprintf("p%d.yml", i)
		files[name] = "- hosts: all\n  roles:\n    - Bad-Role\n"
		paths = append(paths, name)
	}
	project(t, files)

	want := []found{{"p0.yml", 3, "role-name"}}
	for range 40 {
		reg := rules.NewRegistry()
		require.NoError(t, reg.Register(rolename.New(), rules.LoadFailure))
		c := rules.NewCollection(reg, rules.Options{})
		rc := rules.NewRunContext(context.Background(), rules.WithProjectDir("."))
		r, err := New(c, rc, WithConcurrency(8))
		require.NoError(t, err)

		matches, err := r.Run(t.Context(), paths)
		require.NoError(t, err)
		require.Equal(t, want, summarize(matches))
	}
}

func TestRunNoqa(t *testing.T) {
	project(t, map[string]string{
		"site.yml": `- hosts: all
  tasks:
    - name: Quiet
      command: echo hi  # noqa: fqcn[action-core]
    - name: Loud
      command: echo hi
`,
	})

	matches, err := newRunner(t).Run(t.Context(), []string{"site.yml"})
	require.NoError(t, err)
	assert.Equal(t, []found{{"site.yml", 5, "fqcn[action-core]"}}, summarize(matches))
}

func TestRunIgnoreFile(t *testing.T) {
	dir := project(t, map[string]string{
		"site.yml": `- hosts: all
  tasks:
    - name: Run
      command: echo hi
`,
		"other.yml": `- hosts: all
  tasks:
    - name: Run
      shell: echo hi
`,
		".ansible-lint-ignore": "site.yml fqcn[action-core]\nother.yml fqcn skip\n",
	})

	ign, err := ignore.Load(dir)
	require.NoError(t, err)
	pctx := &processor.Context{ProjectDir: ".", Ignore: ign}

	matches, err := newRunner(t, WithProcessors(processor.Default(), pctx)).Run(t.Context(), nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "site.yml", matches[0].File())
	assert.True(t, matches[0].Ignored)
}

func TestRunRole(t *testing.T) {
	project(t, map[string]string{
		"roles/web/tasks/main.yml": `- name: Start
  service: name=nginx state=started
`,
		"roles/web/handlers/main.yml": `- name: Restart
  ansible.builtin.service: name=nginx state=restarted
`,
		"site.yml": `- hosts: all
  roles:
    - web
    - role: absent
`,
	})

	r := newRunner(t)
	matches, err := r.Run(t.Context(), []string{"site.yml"})
	require.NoError(t, err)
	assert.Equal(t, []found{{"roles/web/tasks/main.yml", 1, "fqcn[action-core]"}}, summarize(matches))
	assert.Equal(t, []string{
		"roles/web",
		"roles/web/handlers/main.yml",
		"roles/web/tasks/main.yml",
		"site.yml",
	}, r.Checked().Paths())
}

func TestRunExcludes(t *testing.T) {
	project(t, map[string]string{
		"site.yml": `- hosts: all
  tasks:
    - name: Run
      command: echo hi
`,
		"vendor/lib.yml": `- hosts: all
  tasks:
    - name: Run
      command: echo hi
`,
		"build/out.yml": `- hosts: all
  tasks:
    - name: Run
      command: echo hi
`,
		".gitignore": "build/\n",
	})

	matches, err := newRunner(t, WithExcludes([]string{"vendor"})).Run(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, []found{{"site.yml", 3, "fqcn[action-core]"}}, summarize(matches))
}

func TestRunMissingEntryPoint(t *testing.T) {
	project(t, nil)

	matches, err := newRunner(t).Run(t.Context(), []string{"nope.yml"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "load-failure[not-found]", matches[0].Tag)
}

func TestRunNoFiles(t *testing.T) {
	dir := project(t, map[string]string{"README.md": "# empty\n"})

	_, err := newRunner(t).Run(t.Context(), []string{dir})
	require.ErrorIs(t, err, ErrNoFilesMatched)
}

func TestRunCanceled(t *testing.T) {
	project(t, map[string]string{
		"site.yml": "- hosts: all\n  tasks: []\n",
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := newRunner(t).Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheckedSet(t *testing.T) {
	s := NewCheckedSet("a.yml")
	assert.False(t, s.Add("a.yml"))
	assert.True(t, s.Add("b.yml"))
	assert.True(t, s.Contains("b.yml"))
	assert.Equal(t, []string{"a.yml", "b.yml"}, s.Paths())
}

func TestExcluder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\nsecret/\n"), 0o644))

	e, err := newExcluder(dir, []string{"vendor/", "**/generated.yml"})
	require.NoError(t, err)

	tests := map[string]bool{
		"vendor":                 true,
		"vendor/x.yml":           true,
		"vendors.yml":            false,
		"roles/a/generated.yml":  true,
		"debug.log":              true,
		"secret/vault.yml":       true,
		"playbooks/site.yml":     false,
		"roles/a/tasks/main.yml": false,
	}
	for path, want := range tests {
		assert.Equal(t, want, e.excluded(path), path)
	}
}

func TestLoadGitignore(t *testing.T) {
	dir := t.TempDir()

	patterns, err := loadGitignore(dir)
	require.NoError(t, err)
	assert.Nil(t, patterns)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("# build output\nbuild/\n*.retry\n"), 0o644))
	patterns, err = loadGitignore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "*.retry"}, patterns)
}
