// Package rolename implements role-name.
package rolename

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// ID is the rule identifier.
const ID = "role-name"

var rolePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Rule checks role names against the Galaxy naming pattern and flags roles
// referenced by path. A role name is reported once per run, at its first
// location in match order, however many times the role is reached.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Role name does not match ``^[a-z][a-z0-9_]*$`` pattern.",
		Description: "Role names are now limited to contain only lowercase alphanumeric " +
			"characters, plus underline and start with an alpha character.",
		Severity: rules.SeverityHigh,
		Tags:     []string{"deprecations", "metadata"},
		Link:     rules.DocURL(ID),
		Version:  "v6.8.5",
	}
}

// MatchDir checks the name of a role directory, preferring the role_name
// declared in meta/main.yml.
func (r *Rule) MatchDir(_ *rules.RunContext, file *lintable.Lintable) []rules.MatchError {
	name := metaRoleName(file.Path)
	if name == "" {
		name = file.Role
	}
	if name == "" {
		return nil
	}
	if m, ok := r.checkName(name, rules.NewFileLocation(file.Path)); ok {
		return []rules.MatchError{m}
	}
	return nil
}

// MatchPlay checks the roles listed by a play.
func (r *Rule) MatchPlay(_ *rules.RunContext, file *lintable.Lintable, play *ansible.Play) []rules.MatchError {
	if file.Kind() != lintable.KindPlaybook || rules.PlaySkipped(play, r.Metadata().Names()...) {
		return nil
	}
	roles := play.Get("roles")
	if roles == nil || roles.Kind != yaml.SequenceNode {
		return nil
	}

	var out []rules.MatchError
	for _, entry := range roles.Content {
		name := ansible.ScalarString(entry)
		if entry.Kind == yaml.MappingNode {
			name = ansible.ScalarString(ansible.MapGet(entry, "role"))
			if name == "" {
				name = ansible.ScalarString(ansible.MapGet(entry, "name"))
			}
		}
		if name == "" || ansible.IsTemplated(name) {
			continue
		}
		loc := rules.NewNodeLocation(file.Path, entry)
		if strings.Contains(name, "/") {
			out = append(out, r.pathMatch(loc))
			continue
		}
		if m, ok := r.checkName(name, loc); ok {
			out = append(out, m)
		}
	}
	return out
}

// MatchTask flags include_role and import_role given a path.
func (r *Rule) MatchTask(_ *rules.RunContext, file *lintable.Lintable, task *ansible.Task) []rules.MatchError {
	switch task.Module() {
	case "include_role", "import_role":
	default:
		return nil
	}
	name, _ := task.Args["name"].(string)
	if !strings.Contains(name, "/") || ansible.IsTemplated(name) {
		return nil
	}
	return []rules.MatchError{r.pathMatch(rules.NewTaskLocation(file.Path, task))}
}

func (r *Rule) pathMatch(loc rules.Location) rules.MatchError {
	return rules.NewMatch(r, loc, "Avoid using paths when importing roles.").WithTag(ID + "[path]")
}

// checkName validates a role name. Collection roles (namespace.collection.role)
// are checked on their last segment.
func (r *Rule) checkName(name string, loc rules.Location) (rules.MatchError, bool) {
	short := name
	if i := strings.LastIndex(name, "."); i >= 0 {
		short = name[i+1:]
	}
	if rolePattern.MatchString(short) {
		return rules.MatchError{}, false
	}
	return rules.NewMatch(r, loc,
		fmt.Sprintf("Role name %s does not match ``^[a-z][a-z0-9_]*$`` pattern.", name)).WithUnique(name), true
}

// metaRoleName reads galaxy_info.role_name from the role's metadata.
func metaRoleName(dir string) string {
	for _, name := range []string{"main.yml", "main.yaml"} {
		content, err := os.ReadFile(filepath.Join(filepath.FromSlash(dir), "meta", name))
		if err != nil {
			continue
		}
		doc, err := ansible.Parse(content)
		if err != nil {
			return ""
		}
		return ansible.ScalarString(ansible.MapGet(ansible.MapGet(doc.Root(), "galaxy_info"), "role_name"))
	}
	return ""
}

func init() {
	rules.Register(New())
}
