package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.UseDefaultRules)
	assert.True(t, cfg.SkipActionValidation)
	assert.Equal(t, []string{"experimental", "jinja[spacing]", "fqcn[deep]"}, cfg.WarnList)
}

func TestLoadNoConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, Default().WarnList, cfg.WarnList)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".ansible-lint"), `
skip_list:
  - yaml[line-length]
exclude_paths: [.cache/, vendor]
offline: true
max_line_length: 120
kinds:
  - playbook: "**/deploy/*.yml"
rules:
  name:
    allow_lowercase: true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".ansible-lint"), cfg.ConfigFile)
	assert.Equal(t, dir, cfg.ProjectDir)
	assert.Equal(t, []string{"yaml[line-length]"}, cfg.SkipList)
	assert.Equal(t, []string{".cache/", "vendor"}, cfg.ExcludePaths)
	assert.True(t, cfg.Offline)
	assert.True(t, cfg.SkipActionValidation, "defaults survive when the file omits a key")

	kinds := cfg.KindPatterns()
	require.Len(t, kinds, 1)
	assert.Equal(t, "**/deploy/*.yml", kinds[0].Pattern)

	opts := cfg.RuleOptions()
	assert.Equal(t, 120, opts["yaml"]["max_line_length"])
	assert.Equal(t, true, opts["name"]["allow_lowercase"])
}

func TestLoadConfigDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".config", "ansible-lint.yml"), "strict: true\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, dir, cfg.ProjectDir)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".ansible-lint"), "skip_list: [unterminated\n")

	_, err := Load(dir)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadFromFile(filepath.Join(dir, "missing.yml"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".ansible-lint"), "skip_list: [name]\noffline: false\n")
	t.Setenv("ANSIBLE_LINT_SKIP_LIST", "fqcn, yaml")
	t.Setenv("ANSIBLE_LINT_OFFLINE", "true")
	t.Setenv("ANSIBLE_LINT_SOMETHING_ELSE", "ignored")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"fqcn", "yaml"}, cfg.SkipList)
	assert.True(t, cfg.Offline)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	writeFile(t, filepath.Join(root, ".ansible-lint.yml"), "")
	nested := filepath.Join(root, "playbooks", "web")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, filepath.Join(root, ".ansible-lint.yml"), Discover(nested))

	// The walk stops at the repository root.
	inner := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(filepath.Join(inner, ".git"), 0o755))
	assert.Empty(t, Discover(inner))
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		key, value string
		wantKey    string
		wantValue  any
	}{
		{"ANSIBLE_LINT_WARN_LIST", "a,,b", "warn_list", []string{"a", "b"}},
		{"ANSIBLE_LINT_STRICT", "1", "strict", "1"},
		{"ANSIBLE_LINT_RULES", "x", "", nil},
	}
	for _, tt := range tests {
		key, value := envTransform(tt.key, tt.value)
		assert.Equal(t, tt.wantKey, key, tt.key)
		assert.Equal(t, tt.wantValue, value, tt.key)
	}
}

func TestColorMode(t *testing.T) {
	assert.True(t, ColorMode("always"))
	assert.False(t, ColorMode("never"))

	t.Setenv("GITHUB_ACTIONS", "")
	assert.False(t, GitHubActions())
}
