package config

import (
	"os"

	"github.com/gkampitakis/ciinfo"
)

// GitHubActions reports whether the process runs inside a GitHub Actions
// job, where matches are also emitted as workflow annotations. The
// variable is read again so that clearing it disables annotations.
func GitHubActions() bool {
	return ciinfo.IsCI && ciinfo.IsVendor("GITHUB_ACTIONS") && os.Getenv("GITHUB_ACTIONS") == "true"
}

// ColorMode resolves the colour setting: "always" and "never" are kept,
// anything else means colour unless running in CI.
func ColorMode(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		return !ciinfo.IsCI
	}
}

// CIName returns the detected CI provider name, or empty string if not in CI.
func CIName() string {
	if !ciinfo.IsCI {
		return ""
	}
	return ciinfo.Name
}
