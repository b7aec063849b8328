package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// pep8Reporter prints one parseable line per match:
//
//	site.yml:4:7: fqcn[action-core]: Use FQCN for builtin module actions (command).
type pep8Reporter struct {
	w io.Writer
}

func (r *pep8Reporter) Report(matches []rules.MatchError) error {
	for _, m := range matches {
		if _, err := fmt.Fprintf(r.w, "%s: %s: %s\n", position(m), m.Tag, m.Message); err != nil {
			return err
		}
	}
	return nil
}

// githubReporter prints GitHub Actions workflow commands, which the runner
// turns into annotations on the pull request.
type githubReporter struct {
	w io.Writer
}

func (r *githubReporter) Report(matches []rules.MatchError) error {
	for _, m := range matches {
		level := "error"
		switch {
		case m.Ignored:
			level = "notice"
		case m.Level == rules.LevelWarning:
			level = "warning"
		}
		props := "file=" + escapeProperty(m.File())
		if m.Line() > 0 {
			props += fmt.Sprintf(",line=%d", m.Line())
		}
		if m.Column() > 0 {
			props += fmt.Sprintf(",col=%d", m.Column())
		}
		props += ",title=" + escapeProperty(m.Tag)
		msg := m.Message
		if m.Details != "" {
			msg += "\n" + m.Details
		}
		if _, err := fmt.Fprintf(r.w, "::%s %s::%s\n", level, props, escapeData(msg)); err != nil {
			return err
		}
	}
	return nil
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

// escapeData escapes workflow command data.
func escapeData(s string) string {
	return dataEscaper.Replace(s)
}

// escapeProperty escapes workflow command property values.
func escapeProperty(s string) string {
	return propertyEscaper.Replace(s)
}
