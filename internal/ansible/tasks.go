package ansible

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// TaskType distinguishes the containers a task can come from.
type TaskType string

const (
	TypeTask    TaskType = "task"
	TypeHandler TaskType = "handler"
	TypeBlock   TaskType = "block"
)

// SkipTag is the task tag that disables every skippable rule for a task.
const SkipTag = "skip_ansible_lint"

// Task is one task, handler or block, with its normalized action.
type Task struct {
	Node *yaml.Node

	Name string
	Type TaskType

	// Section is the key of the list that holds the task: "tasks",
	// "handlers", "block", "rescue", ...
	Section string

	// Action is the module as written, e.g. "ansible.builtin.shell".
	// Empty for blocks.
	Action string

	// Args are the module arguments. Free-form text is kept under
	// RawParamsKey.
	Args map[string]any

	// LocalAction is set for tasks written with local_action.
	LocalAction bool

	Line    int
	Column  int
	EndLine int

	// Skips lists the rule ids and tags named by noqa comments inside the
	// task, excluding nested block tasks.
	Skips []string

	// Tags are the task's own tags keyword values.
	Tags []string

	// Err is set when the action could not be determined.
	Err error
}

// Module returns the action without its builtin collection prefix.
func (t *Task) Module() string {
	return ShortName(t.Action)
}

// IsBlock reports whether the task is a block container.
func (t *Task) IsBlock() bool {
	return t.Type == TypeBlock
}

// Get returns the node stored under key in the task mapping.
func (t *Task) Get(key string) *yaml.Node {
	return MapGet(t.Node, key)
}

// Has reports whether the task mapping sets key.
func (t *Task) Has(key string) bool {
	return t.Get(key) != nil
}

// RawParams returns the free-form argument string of the task.
func (t *Task) RawParams() string {
	s, _ := t.Args[RawParamsKey].(string)
	return s
}

// CommandLine returns the command run by command-like modules: the cmd
// argument, the argv list joined by spaces, or the free-form text.
func (t *Task) CommandLine() string {
	if cmd, ok := t.Args["cmd"].(string); ok {
		return cmd
	}
	if argv, ok := t.Args["argv"].([]any); ok {
		parts := make([]string, 0, len(argv))
		for _, a := range argv {
			parts = append(parts, fmt.Sprint(a))
		}
		return strings.Join(parts, " ")
	}
	return t.RawParams()
}

// Skipped reports whether any of ids is listed in the task's noqa skips.
func (t *Task) Skipped(ids ...string) bool {
	for _, id := range ids {
		if slices.Contains(t.Skips, id) {
			return true
		}
	}
	return false
}

// Play is one entry of a playbook.
type Play struct {
	Node *yaml.Node

	Name    string
	Line    int
	Column  int
	EndLine int

	// Skips lists noqa ids found on the play's own lines, excluding its
	// task lists.
	Skips []string
}

// Get returns the node stored under key in the play mapping.
func (p *Play) Get(key string) *yaml.Node {
	return MapGet(p.Node, key)
}

// IsImport reports whether the play is an import_playbook entry.
func (p *Play) IsImport() bool {
	return p.Get("import_playbook") != nil || p.Get("ansible.builtin.import_playbook") != nil
}

// Plays returns the plays of a playbook document.
func Plays(doc *Document) []*Play {
	root := doc.Root()
	if root == nil || root.Kind != yaml.SequenceNode {
		return nil
	}

	var plays []*Play
	for _, n := range root.Content {
		n = resolve(n)
		if n.Kind != yaml.MappingNode {
			continue
		}
		p := &Play{
			Node:    n,
			Name:    ScalarString(MapGet(n, "name")),
			Line:    n.Line,
			Column:  n.Column,
			EndLine: doc.EndLine(n),
		}
		excluded := sectionRanges(doc, n, PlaySections)
		p.Skips = doc.SkipsBetween(p.Line, p.EndLine, excluded.contains)
		plays = append(plays, p)
	}
	return plays
}

// PlaybookTasks returns every task of every play, blocks flattened.
func PlaybookTasks(doc *Document) []*Task {
	var tasks []*Task
	for _, play := range Plays(doc) {
		for _, section := range PlaySections {
			typ := TypeTask
			if section == "handlers" {
				typ = TypeHandler
			}
			tasks = appendTasks(tasks, doc, MapGet(play.Node, section), section, typ)
		}
	}
	return tasks
}

// FileTasks returns the tasks of a tasks or handlers file, blocks flattened.
func FileTasks(doc *Document, handlers bool) []*Task {
	typ, section := TypeTask, "tasks"
	if handlers {
		typ, section = TypeHandler, "handlers"
	}
	return appendTasks(nil, doc, doc.Root(), section, typ)
}

func appendTasks(tasks []*Task, doc *Document, seq *yaml.Node, section string, typ TaskType) []*Task {
	seq = resolve(seq)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return tasks
	}

	for _, n := range seq.Content {
		n = resolve(n)
		if n.Kind != yaml.MappingNode {
			continue
		}

		t := &Task{
			Node:    n,
			Name:    ScalarString(MapGet(n, "name")),
			Type:    typ,
			Section: section,
			Line:    n.Line,
			Column:  n.Column,
			EndLine: doc.EndLine(n),
			Tags:    StringList(MapGet(n, "tags")),
		}

		isBlock := MapGet(n, "block") != nil
		if isBlock {
			t.Type = TypeBlock
		} else {
			normalize(t)
		}

		excluded := sectionRanges(doc, n, BlockSections)
		t.Skips = doc.SkipsBetween(t.Line, t.EndLine, excluded.contains)
		tasks = append(tasks, t)

		if isBlock {
			for _, sub := range BlockSections {
				tasks = appendTasks(tasks, doc, MapGet(n, sub), sub, typ)
			}
		}
	}
	return tasks
}

// lineRanges is a set of inclusive line intervals.
type lineRanges [][2]int

func (r lineRanges) contains(line int) bool {
	for _, rg := range r {
		if line >= rg[0] && line <= rg[1] {
			return true
		}
	}
	return false
}

// sectionRanges returns the line spans of the task lists stored under keys.
func sectionRanges(doc *Document, n *yaml.Node, keys []string) lineRanges {
	var out lineRanges
	for _, key := range keys {
		seq := resolve(MapGet(n, key))
		if seq == nil || seq.Kind != yaml.SequenceNode || len(seq.Content) == 0 {
			continue
		}
		out = append(out, [2]int{seq.Content[0].Line, doc.EndLine(seq)})
	}
	return out
}
