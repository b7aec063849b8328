package cmd

import (
	"encoding/json"
	"io"

	"github.com/tinovyatkin/ansible-lint/internal/reporter"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

type ruleListing struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	Tags        []string `json:"tags"`
	Version     string   `json:"version_added,omitempty"`
	URL         string   `json:"url"`
}

// listRules prints the rule table, or a JSON array for the JSON formats.
func listRules(w io.Writer, format reporter.Format, mds []rules.RuleMetadata) error {
	if format != reporter.FormatJSON && format != reporter.FormatCodeclimate {
		reporter.PrintRules(w, mds)
		return nil
	}

	out := make([]ruleListing, 0, len(mds))
	for _, md := range mds {
		url := md.Link
		if url == "" {
			url = rules.DocURL(md.ID)
		}
		out = append(out, ruleListing{
			ID:          md.ID,
			Description: md.ShortDescription,
			Severity:    string(md.Severity),
			Tags:        md.Tags,
			Version:     md.Version,
			URL:         url,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
