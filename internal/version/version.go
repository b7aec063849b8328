// Package version reports the ansible-lint version, the ansible-core it
// runs against, and whether a newer release exists.
package version

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"runtime"
	"runtime/debug"
	"strings"
)

var version = "dev"

// ErrAnsibleMissing is returned when the ansible executable is not found.
var ErrAnsibleMissing = errors.New("ansible is not installed")

// Version returns the current version string
func Version() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return strings.TrimPrefix(info.Main.Version, "v")
	}
	return version
}

// ansibleVersionRe matches "ansible [core 2.16.3]" and "ansible 2.9.27".
var ansibleVersionRe = regexp.MustCompile(`^ansible(?: \[core ([^\]]+)\]| (\S+))`)

// AnsibleVersion runs "ansible --version" and returns the ansible-core
// version it reports.
func AnsibleVersion(ctx context.Context) (string, error) {
	path, err := exec.LookPath("ansible")
	if err != nil {
		return "", ErrAnsibleMissing
	}
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", err
	}
	return parseAnsibleVersion(string(out))
}

func parseAnsibleVersion(out string) (string, error) {
	first, _, _ := strings.Cut(out, "\n")
	m := ansibleVersionRe.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return "", errors.New("unrecognized ansible --version output")
	}
	if m[1] != "" {
		return m[1], nil
	}
	return m[2], nil
}

// Info is the machine-readable version report.
type Info struct {
	Version     string `json:"version"`
	AnsibleCore string `json:"ansibleCore,omitempty"`
	GoVersion   string `json:"goVersion"`
	Platform    string `json:"platform"`
}

// GetInfo collects version information, probing ansible-core.
func GetInfo(ctx context.Context) Info {
	info := Info{
		Version:   Version(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if v, err := AnsibleVersion(ctx); err == nil {
		info.AnsibleCore = v
	}
	return info
}

// String renders info the way --version prints it.
func (i Info) String() string {
	core := i.AnsibleCore
	if core == "" {
		core = "missing"
	}
	return "ansible-lint " + i.Version + " using ansible-core:" + core
}
