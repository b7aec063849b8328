package runner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// child is a file or role referenced by a lintable.
type child struct {
	lintable *lintable.Lintable
	// line is where the reference appears in the parent.
	line int
}

type roleFile struct {
	dir  string
	kind lintable.Kind
}

// roleFiles are the files of a role checked when the role is referenced.
var roleFiles = []roleFile{
	{"tasks", lintable.KindTasks},
	{"handlers", lintable.KindHandlers},
	{"meta", lintable.KindMeta},
	{"vars", lintable.KindVars},
	{"defaults", lintable.KindVars},
}

var (
	taskIncludes = []string{"include_tasks", "import_tasks", "include"}
	roleIncludes = []string{"include_role", "import_role"}
)

// children returns the lintables referenced by l, and load-failure matches
// for references that cannot be found.
func (r *Runner) children(l *lintable.Lintable) ([]child, []rules.MatchError) {
	switch l.Kind() {
	case lintable.KindRole:
		return r.roleChildren(l.Path, l, 0), nil
	case lintable.KindPlaybook, lintable.KindTasks, lintable.KindHandlers, lintable.KindMeta:
	default:
		return nil, nil
	}

	doc, err := l.Document()
	if err != nil {
		return nil, nil
	}

	var (
		out      []child
		failures []rules.MatchError
	)
	addFile := func(ref string, line int, kind lintable.Kind, candidates []string) {
		if ref == "" || ansible.IsTemplated(ref) {
			return
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				out = append(out, child{lintable.New(c, lintable.WithKind(kind), lintable.WithParent(l)), line})
				return
			}
		}
		failures = append(failures, notFound(l.Path, line, ref))
	}
	addRole := func(name string, line int) {
		if name == "" || ansible.IsTemplated(name) {
			return
		}
		dir := r.findRole(l, name)
		if dir == "" {
			logrus.Debugf("%s:%d: role %s not found", l.Path, line, name)
			return
		}
		out = append(out, r.roleChildren(dir, l, line)...)
	}

	switch l.Kind() {
	case lintable.KindMeta:
		for _, dep := range seqItems(ansible.MapGet(doc.Root(), "dependencies")) {
			addRole(roleRef(dep), dep.Line)
		}
		return out, failures
	case lintable.KindPlaybook:
		for _, play := range ansible.Plays(doc) {
			if play.IsImport() {
				ref := ansible.ScalarString(play.Get("import_playbook"))
				if ref == "" {
					ref = ansible.ScalarString(play.Get("ansible.builtin.import_playbook"))
				}
				addFile(ref, play.Line, lintable.KindPlaybook, r.fileCandidates(l, ref))
				continue
			}
			for _, entry := range seqItems(play.Get("roles")) {
				addRole(roleRef(entry), entry.Line)
			}
		}
	}

	var tasks []*ansible.Task
	switch l.Kind() {
	case lintable.KindPlaybook:
		tasks = ansible.PlaybookTasks(doc)
	case lintable.KindTasks:
		tasks = ansible.FileTasks(doc, false)
	case lintable.KindHandlers:
		tasks = ansible.FileTasks(doc, true)
	}
	for _, t := range tasks {
		module := t.Module()
		switch {
		case slices.Contains(taskIncludes, module):
			ref, _ := t.Args["file"].(string)
			if ref == "" {
				ref = t.RawParams()
			}
			kind := lintable.KindTasks
			if t.Type == ansible.TypeHandler {
				kind = lintable.KindHandlers
			}
			addFile(ref, t.Line, kind, r.fileCandidates(l, ref))
		case slices.Contains(roleIncludes, module):
			name, _ := t.Args["name"].(string)
			addRole(name, t.Line)
		}
	}
	return out, failures
}

func notFound(file string, line int, ref string) rules.MatchError {
	return rules.NewMatch(rules.LoadFailure, rules.NewLineLocation(file, line),
		fmt.Sprintf("Unable to find file or directory %q", ref)).
		WithTag(rules.LoadFailureID + "[not-found]").
		WithDetails(fs.ErrNotExist.Error())
}

// roleChildren returns the role directory itself and its main files.
func (r *Runner) roleChildren(dir string, parent *lintable.Lintable, line int) []child {
	var out []child
	if parent == nil || parent.Path != lintable.NormalizePath(dir) {
		out = append(out, child{lintable.New(dir, lintable.WithKind(lintable.KindRole), lintable.WithParent(parent)), line})
	}
	for _, rf := range roleFiles {
		for _, name := range []string{"main.yml", "main.yaml"} {
			p := filepath.Join(dir, rf.dir, name)
			if _, err := os.Stat(p); err == nil {
				out = append(out, child{lintable.New(p, lintable.WithKind(rf.kind), lintable.WithParent(parent)), line})
				break
			}
		}
	}
	return out
}

// fileCandidates lists where a relative include may live: next to the
// including file, in the tasks directory of its role, at the role root and
// at the project root.
func (r *Runner) fileCandidates(l *lintable.Lintable, ref string) []string {
	ref = filepath.FromSlash(ref)
	if filepath.IsAbs(ref) {
		return []string{ref}
	}
	base := filepath.FromSlash(filepath.Dir(l.Path))
	out := []string{filepath.Join(base, ref)}
	if root := roleRoot(l.Path); root != "" {
		out = append(out, filepath.Join(root, "tasks", ref), filepath.Join(root, ref))
	}
	return append(out, filepath.Join(r.projectDir, ref))
}

// findRole resolves a role name or path referenced from l, returning the
// role directory or "" when it cannot be found.
func (r *Runner) findRole(l *lintable.Lintable, name string) string {
	if slices.Contains(r.rc.MockRoles, name) {
		return ""
	}
	native := filepath.FromSlash(name)
	if filepath.IsAbs(native) {
		return existingDir(native)
	}

	base := filepath.FromSlash(filepath.Dir(l.Path))
	candidates := []string{
		filepath.Join(base, "roles", native),
		filepath.Join(base, native),
		// From roles/<role>/meta/main.yml.
		filepath.Join(base, "..", "..", "..", "roles", native),
		filepath.Join(base, "..", "..", native),
		filepath.Join(r.projectDir, "roles", native),
	}
	for _, p := range filepath.SplitList(os.Getenv("ANSIBLE_ROLES_PATH")) {
		if p != "" {
			candidates = append(candidates, filepath.Join(p, native))
		}
	}
	for _, c := range candidates {
		if d := existingDir(c); d != "" {
			return d
		}
	}
	return ""
}

func existingDir(p string) string {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return ""
	}
	return filepath.Clean(p)
}

// roleRoot returns the role directory containing p, or "".
func roleRoot(p string) string {
	dir := filepath.Dir(filepath.FromSlash(p))
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		isSubdir := slices.ContainsFunc(roleFiles, func(rf roleFile) bool { return rf.dir == filepath.Base(dir) })
		if isSubdir && (lintable.IsRoleDir(parent) || filepath.Base(filepath.Dir(parent)) == "roles") {
			return parent
		}
		dir = parent
	}
}

// roleRef reads the role name of a roles: or dependencies: entry.
func roleRef(n *yaml.Node) string {
	if n.Kind == yaml.MappingNode {
		if s := ansible.ScalarString(ansible.MapGet(n, "role")); s != "" {
			return s
		}
		return ansible.ScalarString(ansible.MapGet(n, "name"))
	}
	return strings.TrimSpace(ansible.ScalarString(n))
}

func seqItems(n *yaml.Node) []*yaml.Node {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	return n.Content
}
