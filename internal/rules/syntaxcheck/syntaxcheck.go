// Package syntaxcheck implements syntax-check, which runs
// "ansible-playbook --syntax-check" on playbooks and turns its failures into
// matches.
package syntaxcheck

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/armon/circbuf"
	"github.com/sirupsen/logrus"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
)

// ID is the rule identifier.
const ID = "syntax-check"

// Executable is the program invoked for the check.
const Executable = "ansible-playbook"

// outputLimit bounds how much of the checker's output is kept.
const outputLimit = 64 * 1024

// ErrAnsibleNotFound is returned by LookPath when ansible-playbook is not
// installed.
var ErrAnsibleNotFound = errors.New("ansible-playbook not found in PATH")

var (
	errorTitle = regexp.MustCompile(`(?m)^(?:ERROR! |\[ERROR\]: )(.*)$`)
	legacyLoc  = regexp.MustCompile(`The error appears to be in '([^']+)': line (\d+), column (\d+)`)
	originLoc  = regexp.MustCompile(`(?m)^Origin: (.+?):(\d+):(\d+)\s*$`)
)

// LookPath returns the checker's path or ErrAnsibleNotFound.
func LookPath() (string, error) {
	p, err := exec.LookPath(Executable)
	if err != nil {
		return "", ErrAnsibleNotFound
	}
	return p, nil
}

// Rule implements syntax-check.
type Rule struct{}

// New creates the rule.
func New() *Rule {
	return &Rule{}
}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		ID:               ID,
		ShortDescription: "Ansible syntax check failed.",
		Description:      "Running ansible-playbook --syntax-check failed.",
		Severity:         rules.SeverityVeryHigh,
		Tags:             []string{"core", rules.TagUnskippable},
		Link:             rules.DocURL(ID),
		Version:          "v5.0.0",
	}
}

// MatchYAML runs the checker on playbooks. A missing checker is logged and
// yields no match.
func (r *Rule) MatchYAML(rc *rules.RunContext, file *lintable.Lintable) []rules.MatchError {
	if file.Kind() != lintable.KindPlaybook {
		return nil
	}
	exe, err := LookPath()
	if err != nil {
		if rc.Once(ID, "missing") {
			logrus.Warnf("%s: %v, skipping", ID, err)
		}
		return nil
	}

	out, err := circbuf.NewBuffer(outputLimit)
	if err != nil {
		return nil
	}

	env, cleanup, err := mockEnv(rc)
	if err != nil {
		logrus.Warnf("%s: preparing mocks: %v", ID, err)
	}
	defer cleanup()

	cmd := exec.CommandContext(rc.Context(), exe, "--syntax-check", "-i", "localhost,", filepath.FromSlash(file.Path))
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = out
	cmd.Stderr = out

	runErr := cmd.Run()
	if runErr == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		// The checker could not run at all; context cancellation lands here.
		logrus.Warnf("%s: %v", ID, runErr)
		return nil
	}

	return []rules.MatchError{r.parse(file.Path, out.String(), exitErr.ExitCode())}
}

// parse turns the checker output into a single match.
func (r *Rule) parse(file, output string, code int) rules.MatchError {
	title := "Unknown syntax-check failure"
	if m := errorTitle.FindStringSubmatch(output); m != nil {
		title = strings.TrimSpace(m[1])
	}

	tag := ID + "[specific]"
	if strings.Contains(title, "couldn't resolve module/action") {
		tag = ID + "[unknown-module]"
	}

	loc := rules.NewFileLocation(file)
	for _, re := range []*regexp.Regexp{legacyLoc, originLoc} {
		if m := re.FindStringSubmatch(output); m != nil {
			line, _ := strconv.Atoi(m[2])
			col, _ := strconv.Atoi(m[3])
			loc = rules.NewLineLocation(lintable.NormalizePath(m[1]), line)
			loc.Start.Column = col
			break
		}
	}

	return rules.NewMatch(r, loc, title).
		WithTag(tag).
		WithDetails(strings.TrimSpace(output) + "\n(exit code " + strconv.Itoa(code) + ")")
}

// mockEnv materializes mock modules and roles in a temporary directory and
// returns the environment pointing Ansible at them.
func mockEnv(rc *rules.RunContext) ([]string, func(), error) {
	env := []string{"ANSIBLE_NOCOLOR=1", "ANSIBLE_FORCE_COLOR=0"}
	if len(rc.MockModules) == 0 && len(rc.MockRoles) == 0 {
		return env, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "ansible-lint-mocks-")
	if err != nil {
		return env, func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	const stub = "#!/usr/bin/python\nfrom ansible.module_utils.basic import AnsibleModule\n" +
		"def main():\n    AnsibleModule(argument_spec={}, bypass_checks=True).exit_json(changed=False)\n" +
		"if __name__ == '__main__':\n    main()\n"

	library := filepath.Join(dir, "modules")
	for _, m := range rc.MockModules {
		target := filepath.Join(library, m+".py")
		if parts := strings.Split(m, "."); len(parts) == 3 {
			target = filepath.Join(dir, "ansible_collections", parts[0], parts[1], "plugins", "modules", parts[2]+".py")
		}
		if err := writeFile(target, stub); err != nil {
			return env, cleanup, err
		}
	}
	for _, role := range rc.MockRoles {
		target := filepath.Join(dir, "roles", filepath.FromSlash(role), "tasks", "main.yml")
		if parts := strings.Split(role, "."); len(parts) == 3 {
			target = filepath.Join(dir, "ansible_collections", parts[0], parts[1], "roles", parts[2], "tasks", "main.yml")
		}
		if err := writeFile(target, "---\n"); err != nil {
			return env, cleanup, err
		}
	}

	env = append(env,
		"ANSIBLE_LIBRARY="+joinEnv(library, os.Getenv("ANSIBLE_LIBRARY")),
		"ANSIBLE_ROLES_PATH="+joinEnv(filepath.Join(dir, "roles"), os.Getenv("ANSIBLE_ROLES_PATH")),
		"ANSIBLE_COLLECTIONS_PATH="+joinEnv(dir, os.Getenv("ANSIBLE_COLLECTIONS_PATH")),
	)
	return env, cleanup, nil
}

func writeFile(name, content string) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, []byte(content), 0o644)
}

func joinEnv(first, rest string) string {
	if rest == "" {
		return first
	}
	return first + string(os.PathListSeparator) + rest
}

func init() {
	rules.Register(New())
}
