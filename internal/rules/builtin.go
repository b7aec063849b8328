package rules

import (
	"errors"
	"io/fs"

	"github.com/tinovyatkin/ansible-lint/internal/ansible"
)

// LoadFailureID is the id of the matches produced when a file cannot be
// loaded.
const LoadFailureID = "load-failure"

type loadFailure struct{}

func (loadFailure) Metadata() RuleMetadata {
	return RuleMetadata{
		ID:               LoadFailureID,
		ShortDescription: "Failed to load or parse file",
		Description:      "Linter failed to process a file, possibly invalid YAML or a missing include.",
		Severity:         SeverityVeryHigh,
		Tags:             []string{"core", TagUnskippable},
		Link:             DocURL(LoadFailureID),
		Version:          "4.3.0",
	}
}

// LoadFailure is the engine's own rule for unreadable files.
var LoadFailure Rule = loadFailure{}

func init() {
	Register(LoadFailure)
}

// NewLoadFailure converts a load error into a match tagged by its cause:
// load-failure[not-found], load-failure[permission], load-failure[yaml] or
// load-failure[read].
func NewLoadFailure(file string, err error) MatchError {
	tag := "read"
	line := 0

	var perr *ansible.ParseError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		tag = "not-found"
	case errors.Is(err, fs.ErrPermission):
		tag = "permission"
	case errors.As(err, &perr):
		tag = "yaml"
		line = perr.Line
	}

	return NewMatch(LoadFailure, NewLineLocation(file, line), "Failed to load or parse file").
		WithTag(LoadFailureID + "[" + tag + "]").
		WithDetails(err.Error())
}

// DocURL returns the documentation link for a rule id.
func DocURL(id string) string {
	return "https://ansible.readthedocs.io/projects/lint/rules/" + id + "/"
}
