package integration

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

var (
	binaryPath  string
	coverageDir string
)

func TestMain(m *testing.M) {
	// Build the binary once before running tests
	tmpDir, err := os.MkdirTemp("", "ansible-lint-test")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "ansible-lint")

	// Create coverage directory in project root for persistent coverage data
	// If GOCOVERDIR is set externally, use that; otherwise use "./coverage"
	coverageDir = os.Getenv("GOCOVERDIR")
	if coverageDir == "" {
		// Get absolute path to project root (2 levels up from internal/integration)
		wd, err := os.Getwd()
		if err != nil {
			_ = os.RemoveAll(tmpDir)
			panic("failed to get working directory: " + err.Error())
		}
		coverageDir = filepath.Join(wd, "..", "..", "coverage")
	}
	// Make path absolute
	coverageDir, err = filepath.Abs(coverageDir)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		panic("failed to get absolute coverage directory path: " + err.Error())
	}
	if err := os.MkdirAll(coverageDir, 0o750); err != nil {
		_ = os.RemoveAll(tmpDir)
		panic("failed to create coverage directory: " + err.Error())
	}

	// Build the module's main package with coverage instrumentation
	cmd := exec.Command("go", "build", "-cover", "-o", binaryPath, "github.com/tinovyatkin/ansible-lint")
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(tmpDir)
		panic("failed to build binary: " + string(out))
	}

	code := m.Run()

	_ = os.RemoveAll(tmpDir)
	os.Exit(code)
}

// lint runs the binary in a testdata project. PATH is emptied so the result
// does not depend on an installed ansible-core.
func lint(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = filepath.Join("testdata", dir)
	cmd.Env = []string{
		"GOCOVERDIR=" + coverageDir,
		"PATH=",
		"HOME=" + t.TempDir(),
		"ANSIBLE_LINT_OFFLINE=true",
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	code := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("running %v: %v", args, err)
		}
		code = exitErr.ExitCode()
	}
	return stdout.String(), stderr.String(), code
}

func TestScenarios(t *testing.T) {
	testCases := []struct {
		name     string
		dir      string
		args     []string
		wantExit int
	}{
		{"changed-when", "changed-when", []string{"-f", "pep8", "-t", "no-changed-when", "site.yml"}, 2},
		{"changed-when-fixed", "changed-when-fixed", []string{"-f", "pep8", "-t", "no-changed-when", "site.yml"}, 0},
		{"missing-include", "missing-include", []string{"-f", "pep8", "-t", "no-changed-when", "roles/web", "site.yml"}, 2},
		{"shared-include", "shared-include", []string{"-f", "pep8", "-t", "no-changed-when", "a.yml", "b.yml"}, 2},
		{"noqa", "noqa", []string{"-f", "pep8", "-t", "command-instead-of-module,fqcn", "site.yml"}, 2},
		{"ignore-mark", "ignore-mark", []string{"-f", "github", "-t", "no-changed-when"}, 0},
		{"ignore-skip", "ignore-skip", []string{"-f", "pep8", "-t", "no-changed-when"}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, stderr, code := lint(t, tc.dir, tc.args...)
			if code != tc.wantExit {
				t.Errorf("exit code = %d, want %d\nstderr: %s", code, tc.wantExit, stderr)
			}

			snaps.MatchStandaloneSnapshot(t, stdout)
		})
	}
}

func TestDeterministic(t *testing.T) {
	testCases := []struct {
		name string
		dir  string
		args []string
	}{
		{"noqa", "noqa", []string{"-f", "pep8", "site.yml"}},
		{"multi-entry", "multi-entry", []string{
			"-f", "pep8", "-t", "role-name,no-changed-when",
			"a.yml", "b.yml", "c.yml", "d.yml", "e.yml", "f.yml",
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			first, _, _ := lint(t, tc.dir, tc.args...)
			for range 10 {
				if got, _, _ := lint(t, tc.dir, tc.args...); got != first {
					t.Fatalf("runs differ:\n%s\n---\n%s", first, got)
				}
			}
			if tc.dir == "multi-entry" {
				if n := strings.Count(first, ": role-name:"); n != 1 {
					t.Errorf("role-name reported %d times, want 1:\n%s", n, first)
				}
				if n := strings.Count(first, "common.yml:2: no-changed-when"); n != 1 {
					t.Errorf("shared include reported %d times, want 1:\n%s", n, first)
				}
			}
		})
	}
}

func TestFullFormat(t *testing.T) {
	stdout, stderr, code := lint(t, "changed-when", "-t", "no-changed-when", "site.yml")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stdout, "no-changed-when: Commands should not change things if nothing needs doing.") {
		t.Errorf("missing match in output:\n%s", stdout)
	}
	if !strings.Contains(stdout, ">>>") {
		t.Errorf("missing snippet in output:\n%s", stdout)
	}
	if !strings.Contains(stderr, "Failed: 1 failure(s), 0 warning(s) on 1 files.") {
		t.Errorf("missing summary:\n%s", stderr)
	}
}

func TestNoFiles(t *testing.T) {
	_, _, code := lint(t, "noqa", "does-not-exist.yml")
	if code == 0 {
		t.Error("expected a failure for a missing entry point")
	}
}

func TestVersion(t *testing.T) {
	stdout, stderr, code := lint(t, "noqa", "--version")
	if code != 0 {
		t.Fatalf("--version failed with %d: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "ansible-lint ") || !strings.Contains(stdout, "ansible-core:missing") {
		t.Errorf("unexpected version output: %q", stdout)
	}
}
