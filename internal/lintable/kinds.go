package lintable

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind classifies a Lintable.
type Kind string

const (
	KindUnknown          Kind = ""
	KindPlaybook         Kind = "playbook"
	KindTasks            Kind = "tasks"
	KindHandlers         Kind = "handlers"
	KindVars             Kind = "vars"
	KindMeta             Kind = "meta"
	KindMetaRuntime      Kind = "meta-runtime"
	KindRoleArgSpec      Kind = "role-arg-spec"
	KindRequirements     Kind = "requirements"
	KindGalaxy           Kind = "galaxy"
	KindChangelog        Kind = "changelog"
	KindJinja2           Kind = "jinja2"
	KindSanityIgnoreFile Kind = "sanity-ignore-file"
	KindConfig           Kind = "ansible-lint-config"
	KindYAML             Kind = "yaml"
	KindRole             Kind = "role"
	KindText             Kind = "text"
)

// IsYAML reports whether files of this kind are YAML documents.
func (k Kind) IsYAML() bool {
	switch k {
	case KindUnknown, KindJinja2, KindSanityIgnoreFile, KindRole, KindText:
		return false
	default:
		return true
	}
}

// KindPattern maps a doublestar glob to a Kind. Order matters: the first
// matching pattern wins.
type KindPattern struct {
	Kind    Kind
	Pattern string
}

// DefaultKinds is the built-in kind detection table.
var DefaultKinds = []KindPattern{
	{KindJinja2, "**/*.j2"},
	{KindJinja2, "**/*.j2.*"},
	{KindText, "**/templates/**/*.*"},
	{KindConfig, "**/.ansible-lint"},
	{KindConfig, "**/.config/ansible-lint.{yaml,yml}"},
	{KindRequirements, "**/meta/requirements.{yaml,yml}"},
	{KindMetaRuntime, "**/meta/runtime.{yaml,yml}"},
	{KindRoleArgSpec, "**/meta/argument_specs.{yaml,yml}"},
	{KindMeta, "**/meta/main.{yaml,yml}"},
	{KindVars, "**/{host_vars,group_vars,vars,defaults}/**/*.{yaml,yml}"},
	{KindTasks, "**/tasks/**/*.{yaml,yml}"},
	{KindRequirements, "**/requirements.{yaml,yml}"},
	{KindPlaybook, "**/playbooks/*.{yml,yaml}"},
	{KindPlaybook, "**/*playbook*.{yml,yaml}"},
	{KindRole, "**/roles/*/"},
	{KindHandlers, "**/handlers/*.{yaml,yml}"},
	{KindGalaxy, "**/galaxy.yml"},
	{KindChangelog, "**/changelogs/changelog.{yaml,yml}"},
	{KindSanityIgnoreFile, "**/tests/sanity/ignore-*.txt"},
	{KindYAML, "**/*.{yaml,yml}"},
	{KindYAML, "**/.*.{yaml,yml}"},
}

// ParseKinds converts the configuration form ([{kind: glob}, ...]) into
// patterns evaluated before DefaultKinds.
func ParseKinds(entries []map[string]string) []KindPattern {
	out := make([]KindPattern, 0, len(entries))
	for _, entry := range entries {
		for k, pattern := range entry {
			out = append(out, KindPattern{Kind: Kind(k), Pattern: pattern})
		}
	}
	return out
}

// DetectKind returns the kind of the file or directory at name using
// patterns. name should use forward slashes. Only patterns ending in a slash
// apply to directories.
func DetectKind(name string, isDir bool, patterns []KindPattern) Kind {
	name = strings.TrimPrefix(path.Clean(name), "/")
	for _, p := range patterns {
		pattern, dirPattern := strings.CutSuffix(p.Pattern, "/")
		if dirPattern != isDir {
			continue
		}
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return p.Kind
		}
	}
	return KindUnknown
}
