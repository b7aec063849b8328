package reporter

import (
	"slices"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

const defaultToolURI = "https://github.com/tinovyatkin/ansible-lint"

type sarifReporter struct {
	opts Options
}

// Report writes a SARIF 2.1.0 log with one run. Every rule of the run is
// described, matched or not; ignored matches carry an external suppression.
func (r *sarifReporter) Report(matches []rules.MatchError) error {
	report, err := BuildSARIF(matches, r.opts)
	if err != nil {
		return err
	}
	return report.PrettyWrite(r.opts.Writer)
}

// BuildSARIF converts matches into a SARIF report.
func BuildSARIF(matches []rules.MatchError, opts Options) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, err
	}

	uri := opts.ToolURI
	if uri == "" {
		uri = defaultToolURI
	}
	name := opts.ToolName
	if name == "" {
		name = "ansible-lint"
	}
	run := sarif.NewRunWithInformationURI(name, uri)
	if opts.ToolVersion != "" {
		run.Tool.Driver.WithVersion(opts.ToolVersion)
	}

	for _, md := range opts.Rules {
		addRule(run, md.ID, md.ShortDescription, md.Description, md.Link, md.Tags, md.Severity)
	}

	for _, m := range matches {
		if _, err := run.GetRuleById(m.Tag); err != nil {
			addRule(run, m.Tag, m.Message, "", m.DocURL, m.RuleTags, m.Severity)
		}

		msg := m.Message
		if m.Details != "" {
			msg += "\n" + m.Details
		}
		region := sarif.NewRegion().WithStartLine(max(m.Line(), 1))
		if m.Column() > 0 {
			region.WithStartColumn(m.Column())
		}
		result := run.CreateResultForRule(m.Tag).
			WithLevel(sarifLevel(m)).
			WithMessage(sarif.NewTextMessage(msg)).
			WithLocations([]*sarif.Location{
				sarif.NewLocationWithPhysicalLocation(
					sarif.NewPhysicalLocation().
						WithArtifactLocation(sarif.NewSimpleArtifactLocation(m.File()).WithUriBaseId("SRCROOT")).
						WithRegion(region),
				),
			})
		if m.Ignored {
			result.AddSuppression(sarif.NewSuppression("external").WithJustifcation("listed in the ignore file"))
		}
	}

	report.AddRun(run)
	return report, nil
}

func addRule(run *sarif.Run, id, short, full, link string, tags []string, sev rules.Severity) {
	rule := run.AddRule(id).WithDescription(short)
	if full != "" {
		rule.WithFullDescription(sarif.NewMarkdownMultiformatMessageString(full))
	}
	if link != "" {
		rule.WithHelpURI(link)
	}
	props := sarif.Properties{"tags": slices.Clone(tags)}
	if sev != "" {
		props["severity"] = string(sev)
	}
	rule.WithProperties(props)
}

// sarifLevel maps match state to SARIF result levels.
func sarifLevel(m rules.MatchError) string {
	switch {
	case m.Ignored:
		return "note"
	case m.Level == rules.LevelWarning:
		return "warning"
	default:
		return "error"
	}
}
