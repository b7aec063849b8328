package reporter

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// Summary counts the outcome of a run.
type Summary struct {
	Failures int
	Warnings int
	Ignored  int
	Files    int
	Strict   bool

	// ByTag counts matches per tag, excluding ignored ones.
	ByTag []TagCount
}

// TagCount is one row of the violation summary.
type TagCount struct {
	Tag      string
	Count    int
	Severity rules.Severity
	Warning  bool
	RuleTags []string
}

// Summarize counts matches. With strict set warnings count as failures.
func Summarize(matches []rules.MatchError, files int, strict bool) Summary {
	s := Summary{Files: files, Strict: strict}
	byTag := make(map[string]*TagCount)
	for _, m := range matches {
		if m.Ignored {
			s.Ignored++
			continue
		}
		warning := m.Level == rules.LevelWarning && !strict
		if warning {
			s.Warnings++
		} else {
			s.Failures++
		}
		tc, ok := byTag[m.Tag]
		if !ok {
			tc = &TagCount{Tag: m.Tag, Severity: m.Severity, Warning: warning, RuleTags: m.RuleTags}
			byTag[m.Tag] = tc
		}
		tc.Count++
	}
	for _, tc := range byTag {
		s.ByTag = append(s.ByTag, *tc)
	}
	slices.SortFunc(s.ByTag, func(a, b TagCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), strings.Compare(a.Tag, b.Tag))
	})
	return s
}

// Passed reports whether the run should exit successfully.
func (s Summary) Passed() bool {
	return s.Failures == 0
}

// PrintSummary writes the per-tag table and the closing verdict line.
func PrintSummary(w io.Writer, s Summary, color bool) {
	st := newStyles(w, color)

	if len(s.ByTag) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.SetTitle("Rule Violation Summary")
		t.AppendHeader(table.Row{"count", "tag", "severity", "rule associated tags"})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
		for _, tc := range s.ByTag {
			sev := string(tc.Severity)
			if tc.Warning {
				sev += " (warning)"
			}
			t.AppendRow(table.Row{tc.Count, tc.Tag, sev, strings.Join(tc.RuleTags, ", ")})
		}
		t.Render()
		fmt.Fprintln(w)
	}

	verdict, style := "Passed", st.Success
	if !s.Passed() {
		verdict, style = "Failed", st.Error
	}
	line := fmt.Sprintf("%s: %d failure(s), %d warning(s) on %d files.", verdict, s.Failures, s.Warnings, s.Files)
	if s.Ignored > 0 {
		line += fmt.Sprintf(" %d ignored.", s.Ignored)
	}
	fmt.Fprintln(w, style.Render(line))
}

// PrintRules writes the rule listing shown by --list-rules.
func PrintRules(w io.Writer, mds []rules.RuleMetadata) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"id", "description", "severity", "tags", "version"})
	for _, md := range mds {
		t.AppendRow(table.Row{md.ID, md.ShortDescription, md.Severity, strings.Join(md.Tags, ", "), md.Version})
	}
	t.Render()
}

// PrintTags writes the tag listing shown by --list-tags: each tag with the
// rules carrying it.
func PrintTags(w io.Writer, tags map[string][]string) {
	names := make([]string, 0, len(tags))
	for tag := range tags {
		names = append(names, tag)
	}
	slices.Sort(names)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"tag", "rules"})
	for _, tag := range names {
		ids := slices.Clone(tags[tag])
		slices.Sort(ids)
		t.AppendRow(table.Row{tag, strings.Join(ids, ", ")})
	}
	t.Render()
}
