// Package ansible parses Ansible YAML content into position-tagged plays and
// tasks.
//
// Parsing happens once per file with gopkg.in/yaml.v3. Every node keeps its
// originating line and column, so inline "# noqa" comments are correlated with
// plays and tasks by line number instead of by walking a second,
// comment-preserving parse in lockstep.
package ansible

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one parsed YAML file.
type Document struct {
	// Nodes holds the content node of every YAML document in the stream.
	// Empty documents are omitted.
	Nodes []*yaml.Node

	// Lines is the raw source split into lines, without line terminators.
	Lines []string

	// Noqa maps a 1-based line number to the rule ids and tags listed in a
	// "# noqa" comment on that line.
	Noqa map[int][]string

	blockEnd map[*yaml.Node]int
}

// ParseError is returned when content is not valid YAML.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes content into a Document.
func Parse(content []byte) (*Document, error) {
	doc := &Document{
		Lines: SplitLines(content),
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	for {
		var n yaml.Node
		err := dec.Decode(&n)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Line: errorLine(err), Err: err}
		}
		if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
			doc.Nodes = append(doc.Nodes, n.Content[0])
		}
	}

	doc.indexBlockScalars()
	doc.Noqa = doc.noqaByLine()
	return doc, nil
}

// Root returns the first document node, or nil for an empty file.
func (d *Document) Root() *yaml.Node {
	if d == nil || len(d.Nodes) == 0 {
		return nil
	}
	return d.Nodes[0]
}

// SkipsBetween returns the noqa entries found on lines [start, end] except
// the lines listed in exclude.
func (d *Document) SkipsBetween(start, end int, exclude func(line int) bool) []string {
	var skips []string
	for line := start; line <= end; line++ {
		ids, ok := d.Noqa[line]
		if !ok {
			continue
		}
		if exclude != nil && exclude(line) {
			continue
		}
		skips = append(skips, ids...)
	}
	return skips
}

// AllSkips returns every noqa entry of the file.
func (d *Document) AllSkips() []string {
	return d.SkipsBetween(1, len(d.Lines), nil)
}

// SplitLines splits content on newlines, dropping carriage returns.
func SplitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	s := strings.ReplaceAll(string(content), "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// errorLine extracts the line number from a yaml.v3 error message
// ("yaml: line 3: mapping values are not allowed in this context").
func errorLine(err error) int {
	msg := err.Error()
	idx := strings.Index(msg, "line ")
	if idx < 0 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(msg[idx:], "line %d", &line); scanErr != nil {
		return 0
	}
	return line
}
