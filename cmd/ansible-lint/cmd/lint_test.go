package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/tinovyatkin/ansible-lint/internal/testutil"
)

const playbook = `---
- name: Example
  hosts: all
  tasks:
    - name: Run a command
      command: echo hi
      changed_when: false
`

// setup creates a project and hides ansible so syntax-check never runs.
func setup(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files[".git/HEAD"] = "ref: refs/heads/main\n"
	testutil.WriteFiles(t, dir, files)
	t.Chdir(dir)
	t.Setenv("PATH", "")
	t.Setenv("GITHUB_ACTIONS", "")
	for _, k := range []string{"ANSIBLE_LINT_OFFLINE", "NO_COLOR", "FORCE_COLOR", "CLICOLOR"} {
		t.Setenv(k, "")
	}
	return dir
}

// run executes the app and returns stdout, stderr and the exit code.
func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	err := app.Run(context.Background(), append([]string{"ansible-lint", "--offline"}, args...))
	code := ExitSuccess
	if err != nil {
		var ec cli.ExitCoder
		require.True(t, errors.As(err, &ec), "unexpected error: %v", err)
		code = ec.ExitCode()
	}
	return stdout.String(), stderr.String(), code
}

func TestLintViolations(t *testing.T) {
	setup(t, map[string]string{"site.yml": playbook})

	stdout, stderr, code := run(t, "-f", "pep8")
	assert.Equal(t, ExitViolations, code)
	assert.Equal(t, "site.yml:5: fqcn[action-core]: Use FQCN for builtin module actions (command).\n", stdout)
	assert.Contains(t, stderr, "Failed: 1 failure(s), 0 warning(s) on 1 files.")
}

func TestLintParseableFlag(t *testing.T) {
	setup(t, map[string]string{"site.yml": playbook})

	stdout, _, code := run(t, "-p", "site.yml")
	assert.Equal(t, ExitViolations, code)
	assert.Contains(t, stdout, "site.yml:5: fqcn[action-core]:")
}

func TestLintSkipAndWarn(t *testing.T) {
	setup(t, map[string]string{"site.yml": playbook})

	stdout, stderr, code := run(t, "-x", "fqcn", "-f", "pep8")
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Passed: 0 failure(s), 0 warning(s) on 1 files.")

	_, stderr, code = run(t, "-w", "fqcn[action-core]", "-f", "pep8")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "Passed: 0 failure(s), 1 warning(s)")

	fakeAnsible(t)
	_, _, code = run(t, "-w", "fqcn[action-core]", "--strict", "-f", "pep8")
	assert.Equal(t, ExitViolations, code, "strict turns warnings into failures")
}

// fakeAnsible puts an ansible-playbook on PATH whose syntax check always
// passes.
func fakeAnsible(t *testing.T) {
	t.Helper()
	bin := t.TempDir()
	script := filepath.Join(bin, "ansible-playbook")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", bin)
}

func TestLintQuiet(t *testing.T) {
	setup(t, map[string]string{"site.yml": playbook})

	stdout, stderr, code := run(t, "-qq")
	assert.Equal(t, ExitViolations, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestLintConfigFile(t *testing.T) {
	setup(t, map[string]string{
		"site.yml":      playbook,
		".ansible-lint": "skip_list:\n  - fqcn[action-core]\n",
	})

	_, _, code := run(t)
	assert.Equal(t, ExitSuccess, code)
}

func TestLintGenerateIgnore(t *testing.T) {
	dir := setup(t, map[string]string{"site.yml": playbook})

	_, stderr, code := run(t, "--generate-ignore")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "Wrote 1 violation(s)")

	data, err := os.ReadFile(filepath.Join(dir, ".ansible-lint-ignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "site.yml fqcn[action-core]\n")

	stdout, stderr, code := run(t, "-f", "pep8")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "site.yml:5: fqcn[action-core]: Use FQCN for builtin module actions (command).\n", stdout)
	assert.Contains(t, stderr, "1 ignored.")
}

func TestLintSARIFFile(t *testing.T) {
	dir := setup(t, map[string]string{"site.yml": playbook})

	_, _, code := run(t, "-f", "quiet", "--sarif-file", "out/report.sarif")
	assert.Equal(t, ExitViolations, code)

	data, err := os.ReadFile(filepath.Join(dir, "out", "report.sarif"))
	require.NoError(t, err)
	var log map[string]any
	require.NoError(t, json.Unmarshal(data, &log))
	assert.Equal(t, "2.1.0", log["version"])
}

func TestLintExitCodes(t *testing.T) {
	t.Run("no_files", func(t *testing.T) {
		setup(t, map[string]string{"README.md": "# readme\n"})
		_, stderr, code := run(t)
		assert.Equal(t, ExitNoFiles, code)
		assert.Contains(t, stderr, "No lintable files found")
	})

	t.Run("bad_format", func(t *testing.T) {
		setup(t, map[string]string{"site.yml": playbook})
		_, stderr, code := run(t, "-f", "xml")
		assert.Equal(t, ExitInvalidConfig, code)
		assert.Contains(t, stderr, "unknown output format")
	})

	t.Run("bad_config", func(t *testing.T) {
		setup(t, map[string]string{"site.yml": playbook, ".ansible-lint": "skip_list: [oops\n"})
		_, _, code := run(t)
		assert.Equal(t, ExitInvalidConfig, code)
	})

	t.Run("missing_ansible_strict", func(t *testing.T) {
		setup(t, map[string]string{"site.yml": playbook})
		_, stderr, code := run(t, "--strict")
		assert.Equal(t, ExitAnsibleMissing, code)
		assert.Contains(t, stderr, "ansible-playbook not found")
	})

	t.Run("duplicate_custom_rule", func(t *testing.T) {
		setup(t, map[string]string{
			"site.yml": playbook,
			"custom/a.yml": `- id: no-debug
  description: Avoid debug
  module: debug
`,
			"custom/b.yml": `- id: no-debug
  description: Avoid debug again
  module: debug
`,
		})
		_, _, code := run(t, "-r", "custom")
		assert.Equal(t, ExitInvalidConfig, code)
	})
}

func TestListRules(t *testing.T) {
	setup(t, map[string]string{})

	stdout, _, code := run(t, "-L", "-f", "json")
	assert.Equal(t, ExitSuccess, code)

	var listed []ruleListing
	require.NoError(t, json.Unmarshal([]byte(stdout), &listed))
	ids := make([]string, 0, len(listed))
	for _, l := range listed {
		ids = append(ids, l.ID)
	}
	assert.Contains(t, ids, "fqcn")
	assert.Contains(t, ids, "syntax-check")

	stdout, _, code = run(t, "-T")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "formatting")
}

func TestVersion(t *testing.T) {
	setup(t, map[string]string{})

	stdout, _, code := run(t, "--version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "ansible-lint ")
	assert.Contains(t, stdout, "using ansible-core:missing")
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", "", "c"}))
	assert.Nil(t, splitList(nil))
}
