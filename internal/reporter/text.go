package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// styles holds the text-mode palette.
type styles struct {
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Ignored  lipgloss.Style
	Location lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		Error:    r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning:  r.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Ignored:  r.NewStyle().Foreground(lipgloss.Color("8")),
		Location: r.NewStyle().Foreground(lipgloss.Color("14")),
		Muted:    r.NewStyle().Faint(true),
		Success:  r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	}
}

func (s styles) forMatch(m rules.MatchError) lipgloss.Style {
	switch {
	case m.Ignored:
		return s.Ignored
	case m.Level == rules.LevelWarning:
		return s.Warning
	default:
		return s.Error
	}
}

type textReporter struct {
	w       io.Writer
	color   bool
	snippet bool
	styles  styles
	src     sources
}

func newTextReporter(opts Options, snippet bool) *textReporter {
	return &textReporter{
		w:       opts.Writer,
		color:   opts.Color,
		snippet: snippet,
		styles:  newStyles(opts.Writer, opts.Color),
	}
}

// Report writes each match as a header line naming the tag and message,
// the location, and in full mode the source around it:
//
//	fqcn[action-core]: Use FQCN for builtin module actions (command).
//	site.yml:4
//	--------------------
//	   2 |       tasks:
//	   3 |         - name: Run
//	   4 | >>>       command: echo hi
//	--------------------
func (r *textReporter) Report(matches []rules.MatchError) error {
	for _, m := range matches {
		if err := r.printMatch(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *textReporter) printMatch(m rules.MatchError) error {
	header := m.Tag + ": " + m.Message
	switch {
	case m.Ignored:
		header += " (ignored)"
	case m.Level == rules.LevelWarning:
		header += " (warning)"
	}
	if _, err := fmt.Fprintf(r.w, "%s\n%s\n", r.styles.forMatch(m).Render(header), r.styles.Location.Render(position(m))); err != nil {
		return err
	}
	if m.Details != "" {
		if _, err := fmt.Fprintln(r.w, r.styles.Muted.Render(m.Details)); err != nil {
			return err
		}
	}
	if r.snippet && m.Line() > 0 {
		r.printSource(m)
	}
	_, err := fmt.Fprintln(r.w)
	return err
}

// printSource renders the source code snippet with line highlighting:
// up to two lines of context on each side, the affected line marked with
// ">>>". YAML is syntax highlighted when colour is on.
func (r *textReporter) printSource(m rules.MatchError) {
	lines := r.src.lines(m.File())
	line := m.Line()
	if line > len(lines) {
		return
	}

	start := max(1, line-2)
	end := min(len(lines), line+2)

	fmt.Fprintf(r.w, "--------------------\n")
	for i := start; i <= end; i++ {
		pfx := "   "
		if i == line {
			pfx = ">>>"
		}
		fmt.Fprintf(r.w, " %3d | %s %s\n", i, pfx, r.highlight(lines[i-1]))
	}
	fmt.Fprintf(r.w, "--------------------\n")
}

func (r *textReporter) highlight(line string) string {
	if !r.color {
		return line
	}
	var b strings.Builder
	if err := quick.Highlight(&b, line, "yaml", "terminal256", "monokai"); err != nil {
		return line
	}
	return strings.TrimSuffix(b.String(), "\n")
}
