// Package reporter provides output formatters for lint results.
package reporter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// Format is an output format name.
type Format string

const (
	// FormatFull prints each match with a highlighted source snippet.
	FormatFull Format = "full"
	// FormatBrief prints each match on two lines, without snippet.
	FormatBrief Format = "brief"
	// FormatPEP8 prints file:line:col: tag: message lines.
	FormatPEP8 Format = "pep8"
	// FormatJSON and FormatCodeclimate print a CodeClimate JSON report.
	FormatJSON        Format = "json"
	FormatCodeclimate Format = "codeclimate"
	// FormatSARIF prints a SARIF 2.1.0 log.
	FormatSARIF Format = "sarif"
	// FormatGitHub prints GitHub Actions workflow commands.
	FormatGitHub Format = "github"
	// FormatQuiet prints nothing per match.
	FormatQuiet Format = "quiet"
)

// Formats lists the accepted format names.
var Formats = []Format{
	FormatFull, FormatBrief, FormatPEP8, FormatJSON, FormatCodeclimate,
	FormatSARIF, FormatGitHub, FormatQuiet,
}

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a format name. "parseable" is an alias of pep8.
func ParseFormat(s string) (Format, error) {
	if s == "parseable" {
		return FormatPEP8, nil
	}
	f := Format(strings.ToLower(s))
	if f == "" {
		return FormatFull, nil
	}
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("%w %q (valid: %s)", ErrUnknownFormat, s, formatNames())
	}
	return f, nil
}

func formatNames() string {
	names := make([]string, 0, len(Formats))
	for _, f := range Formats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// Options configures a Reporter.
type Options struct {
	Format Format
	Writer io.Writer
	// Color enables ANSI styling in the text formats.
	Color bool

	ToolName    string
	ToolVersion string
	ToolURI     string

	// Rules describes the rules of the run, for formats listing them.
	Rules []rules.RuleMetadata
}

// Reporter writes a set of matches.
type Reporter interface {
	Report(matches []rules.MatchError) error
}

// New creates the reporter for opts.Format.
func New(opts Options) (Reporter, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.ToolName == "" {
		opts.ToolName = "ansible-lint"
	}
	switch opts.Format {
	case FormatFull, "":
		return newTextReporter(opts, true), nil
	case FormatBrief:
		return newTextReporter(opts, false), nil
	case FormatPEP8:
		return &pep8Reporter{w: opts.Writer}, nil
	case FormatJSON, FormatCodeclimate:
		return &codeclimateReporter{w: opts.Writer}, nil
	case FormatSARIF:
		return &sarifReporter{opts: opts}, nil
	case FormatGitHub:
		return &githubReporter{w: opts.Writer}, nil
	case FormatQuiet:
		return quietReporter{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, opts.Format)
	}
}

type quietReporter struct{}

func (quietReporter) Report([]rules.MatchError) error { return nil }

// sources loads file contents for snippets, once per file.
type sources struct {
	mu    sync.Mutex
	files map[string][]string
}

func (s *sources) lines(file string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lines, ok := s.files[file]; ok {
		return lines
	}
	if s.files == nil {
		s.files = make(map[string][]string)
	}
	var lines []string
	if data, err := os.ReadFile(file); err == nil {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}
	s.files[file] = lines
	return lines
}

// position renders file:line[:col].
func position(m rules.MatchError) string {
	var b strings.Builder
	b.WriteString(m.File())
	if m.Line() > 0 {
		fmt.Fprintf(&b, ":%d", m.Line())
		if m.Column() > 0 {
			fmt.Fprintf(&b, ":%d", m.Column())
		}
	}
	return b.String()
}
