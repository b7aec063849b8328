package reporter

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

type codeclimateReporter struct {
	w io.Writer
}

type ccIssue struct {
	Type        string     `json:"type"`
	CheckName   string     `json:"check_name"`
	Categories  []string   `json:"categories"`
	URL         string     `json:"url,omitempty"`
	Severity    string     `json:"severity"`
	Level       string     `json:"level"`
	Description string     `json:"description"`
	Fingerprint string     `json:"fingerprint"`
	Location    ccLocation `json:"location"`
	Content     *ccContent `json:"content,omitempty"`
}

type ccLocation struct {
	Path      string       `json:"path"`
	Lines     *ccLines     `json:"lines,omitempty"`
	Positions *ccPositions `json:"positions,omitempty"`
}

type ccLines struct {
	Begin int `json:"begin"`
}

type ccPositions struct {
	Begin ccPosition `json:"begin"`
}

type ccPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type ccContent struct {
	Body string `json:"body"`
}

// Report writes a CodeClimate JSON array, the format GitLab code quality
// reports consume.
func (r *codeclimateReporter) Report(matches []rules.MatchError) error {
	issues := make([]ccIssue, 0, len(matches))
	for _, m := range matches {
		issue := ccIssue{
			Type:        "issue",
			CheckName:   m.Tag,
			Categories:  slices.Clone(m.RuleTags),
			URL:         m.DocURL,
			Severity:    codeclimateSeverity(m),
			Level:       string(m.Level),
			Description: m.Message,
			Fingerprint: fingerprint(m),
			Location:    ccLocation{Path: m.File()},
		}
		if issue.Categories == nil {
			issue.Categories = []string{}
		}
		if m.Column() > 0 {
			issue.Location.Positions = &ccPositions{Begin: ccPosition{Line: m.Line(), Column: m.Column()}}
		} else {
			issue.Location.Lines = &ccLines{Begin: max(m.Line(), 1)}
		}
		if m.Details != "" {
			issue.Content = &ccContent{Body: m.Details}
		}
		issues = append(issues, issue)
	}

	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(issues)
}

// codeclimateSeverity maps rule severity to CodeClimate severity.
// Experimental and ignored matches are informational.
func codeclimateSeverity(m rules.MatchError) string {
	if m.Ignored || slices.Contains(m.RuleTags, "experimental") {
		return "info"
	}
	switch m.Severity {
	case rules.SeverityVeryHigh:
		return "blocker"
	case rules.SeverityHigh:
		return "critical"
	case rules.SeverityMedium:
		return "major"
	case rules.SeverityLow:
		return "minor"
	case rules.SeverityVeryLow, rules.SeverityInfo:
		return "info"
	default:
		return "minor"
	}
}

// fingerprint identifies a match across runs.
func fingerprint(m rules.MatchError) string {
	k := m.Key()
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%d\x00%d\x00%s\x00%s\x00%s",
		k.File, k.Line, k.Column, k.RuleID, k.Tag, k.Message))
	return hex.EncodeToString(sum[:])
}
