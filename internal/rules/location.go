package rules

import (
	"gopkg.in/yaml.v3"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
)

// Position represents a single point in a source file.
type Position struct {
	// Line is the 1-based line number (0 means the whole file).
	Line int `json:"line"`
	// Column is the 1-based column number (0 means column is unknown).
	Column int `json:"column,omitempty"`
}

// Location is a point in a source file.
type Location struct {
	// File is the normalized path of the file.
	File string `json:"file"`
	// Start is the position the violation points at.
	Start Position `json:"start"`
}

// NewFileLocation creates a location for file-level issues (no specific line).
func NewFileLocation(file string) Location {
	return Location{File: file}
}

// NewLineLocation creates a location for a specific line.
func NewLineLocation(file string, line int) Location {
	return Location{
		File:  file,
		Start: Position{Line: line},
	}
}

// NewNodeLocation points at a YAML node.
func NewNodeLocation(file string, n *yaml.Node) Location {
	if n == nil {
		return NewFileLocation(file)
	}
	return Location{
		File:  file,
		Start: Position{Line: n.Line, Column: n.Column},
	}
}

// NewTaskLocation points at the first line of a task.
func NewTaskLocation(file string, t *ansible.Task) Location {
	return NewLineLocation(file, t.Line)
}

// IsFileLevel returns true if this is a file-level location (no specific line).
func (l Location) IsFileLevel() bool {
	return l.Start.Line == 0
}

// Line returns the 1-based line.
func (l Location) Line() int {
	return l.Start.Line
}
