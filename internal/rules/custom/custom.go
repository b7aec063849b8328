// Package custom loads rules defined in YAML files from rule directories.
//
// A rule file holds one definition or a list of them:
//
//	- id: no-shell-chdir
//	  description: Use the chdir argument of the command module instead.
//	  severity: MEDIUM
//	  tags: [custom]
//	  module: shell
//	  args: [chdir]
//
//	- id: no-todo
//	  line_regex: '#\s*TODO'
//
// A definition with "module" is a task rule matching tasks that call the
// module (with any of "args" set, when given). A definition with
// "line_regex" is a line rule.
package custom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// ErrInvalidDefinition is returned for rule definitions that cannot be used.
var ErrInvalidDefinition = errors.New("invalid custom rule")

// Definition is the YAML form of a custom rule.
type Definition struct {
	ID               string   `yaml:"id"`
	ShortDescription string   `yaml:"short_description"`
	Description      string   `yaml:"description"`
	Severity         string   `yaml:"severity"`
	Tags             []string `yaml:"tags"`
	Message          string   `yaml:"message"`

	// Module and Args select tasks.
	Module string   `yaml:"module"`
	Args   []string `yaml:"args"`

	// LineRegex selects lines.
	LineRegex string `yaml:"line_regex"`
}

var severities = []rules.Severity{
	rules.SeverityVeryHigh, rules.SeverityHigh, rules.SeverityMedium,
	rules.SeverityLow, rules.SeverityVeryLow, rules.SeverityInfo,
}

// Build validates the definition and returns the rule it describes.
func (d Definition) Build() (rules.Rule, error) {
	if strings.TrimSpace(d.ID) == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidDefinition)
	}
	if (d.Module == "") == (d.LineRegex == "") {
		return nil, fmt.Errorf("%w: %s: exactly one of module and line_regex is required", ErrInvalidDefinition, d.ID)
	}

	md := rules.RuleMetadata{
		ID:               d.ID,
		ShortDescription: d.ShortDescription,
		Description:      d.Description,
		Severity:         rules.SeverityMedium,
		Tags:             d.Tags,
		Version:          "custom",
	}
	if md.ShortDescription == "" {
		md.ShortDescription = firstLine(d.Description)
	}
	if md.ShortDescription == "" {
		md.ShortDescription = d.ID
	}
	if d.Severity != "" {
		sev := rules.Severity(strings.ToUpper(d.Severity))
		if !slices.Contains(severities, sev) {
			return nil, fmt.Errorf("%w: %s: unknown severity %q", ErrInvalidDefinition, d.ID, d.Severity)
		}
		md.Severity = sev
	}

	if d.LineRegex != "" {
		re, err := regexp.Compile(d.LineRegex)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, d.ID, err)
		}
		return &lineRule{md: md, re: re, message: d.Message}, nil
	}
	return &taskRule{md: md, module: d.Module, args: d.Args, message: d.Message}, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// Parse decodes the definitions of one rule file.
func Parse(data []byte) ([]Definition, error) {
	var defs []Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(node.Content) == 0 {
			continue
		}
		root := node.Content[0]
		if root.Kind == yaml.SequenceNode {
			var list []Definition
			if err := root.Decode(&list); err != nil {
				return nil, err
			}
			defs = append(defs, list...)
			continue
		}
		var d Definition
		if err := root.Decode(&d); err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// Load reads every *.yml and *.yaml file in dirs, in lexical order, and
// returns the rules they define.
func Load(dirs []string) ([]rules.Rule, error) {
	var out []rules.Rule
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("rules directory: %w", err)
		}
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if e.IsDir() || (ext != ".yml" && ext != ".yaml") {
				continue
			}
			name := filepath.Join(dir, e.Name())
			data, err := os.ReadFile(name)
			if err != nil {
				return nil, err
			}
			defs, err := Parse(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			for _, d := range defs {
				r, err := d.Build()
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}
				out = append(out, r)
			}
		}
	}
	return out, nil
}

type taskRule struct {
	md      rules.RuleMetadata
	module  string
	args    []string
	message string
}

func (r *taskRule) Metadata() rules.RuleMetadata { return r.md }

func (r *taskRule) MatchTask(_ *rules.RunContext, file *lintable.Lintable, task *ansible.Task) []rules.MatchError {
	if task.Action != r.module && task.Module() != ansible.ShortName(r.module) {
		return nil
	}
	if len(r.args) == 0 {
		return []rules.MatchError{rules.NewMatch(r, rules.NewTaskLocation(file.Path, task), r.message)}
	}
	for _, a := range r.args {
		if _, ok := task.Args[a]; ok {
			msg := r.message
			if msg == "" {
				msg = fmt.Sprintf("%s: argument %q is not allowed", r.md.ShortDescription, a)
			}
			return []rules.MatchError{rules.NewMatch(r, rules.NewTaskLocation(file.Path, task), msg)}
		}
	}
	return nil
}

type lineRule struct {
	md      rules.RuleMetadata
	re      *regexp.Regexp
	message string
}

func (r *lineRule) Metadata() rules.RuleMetadata { return r.md }

func (r *lineRule) MatchLine(_ *rules.RunContext, file *lintable.Lintable, lineno int, line string) []rules.MatchError {
	loc := r.re.FindStringIndex(line)
	if loc == nil {
		return nil
	}
	return []rules.MatchError{rules.NewMatch(r, rules.NewLineLocation(file.Path, lineno), r.message).WithColumn(loc[0] + 1)}
}
