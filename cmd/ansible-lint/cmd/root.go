// Package cmd implements the ansible-lint command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/tinovyatkin/ansible-lint/internal/reporter"
)

// NewApp creates the CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:      "ansible-lint",
		Usage:     "Checks playbooks for practices and behavior that could potentially be improved",
		ArgsUsage: "[LINTABLE...]",
		Description: `ansible-lint checks Ansible playbooks, roles, task files and collections
for practices and behavior that could potentially be improved.

Without arguments the project directory is discovered and every Ansible
file in it is linted.

Examples:
  ansible-lint
  ansible-lint site.yml roles/web
  ansible-lint -x yaml[line-length] -f pep8 playbooks/
  ansible-lint --generate-ignore`,
		// --version is handled by the action so -v stays free for verbosity.
		HideVersion:            true,
		UseShortOptionHandling: true,
		Flags:                  flags(),
		Action:                 runLint,
		OnUsageError: func(_ context.Context, cmd *cli.Command, err error, _ bool) error {
			fmt.Fprintf(cmd.Root().ErrWriter, "ERROR: %v\n", err)
			return cli.Exit("", ExitInvalidConfig)
		},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: " + formatUsage(),
		},
		&cli.BoolFlag{
			Name:    "parseable",
			Aliases: []string{"p"},
			Usage:   "Parseable output, same as '-f pep8'",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Quieter output, repeat for less (-qq)",
			Config:  cli.BoolConfig{Count: new(int)},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Increase verbosity level (-vv for more)",
			Config:  cli.BoolConfig{Count: new(int)},
		},
		&cli.StringFlag{
			Name:    "config-file",
			Aliases: []string{"c"},
			Usage:   "Specify configuration file to use (default: discovered)",
		},
		&cli.StringFlag{
			Name:  "project-dir",
			Usage: "Location of the project root directory",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Path to directories or files to skip (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:    "skip-list",
			Aliases: []string{"x"},
			Usage:   "Only check rules whose id/tags do not match these values",
		},
		&cli.StringSliceFlag{
			Name:    "warn-list",
			Aliases: []string{"w"},
			Usage:   "Only warn about these rules, unless overridden in config",
		},
		&cli.StringSliceFlag{
			Name:  "enable-list",
			Usage: "Activate optional rules by their tag name",
		},
		&cli.StringSliceFlag{
			Name:    "tags",
			Aliases: []string{"t"},
			Usage:   "Only check rules whose id/tags match these values",
		},
		&cli.StringSliceFlag{
			Name:    "rulesdir",
			Aliases: []string{"r"},
			Usage:   "Load custom rules from these directories, replacing the defaults unless -R is given",
		},
		&cli.BoolFlag{
			Name:    "use-default-rules",
			Aliases: []string{"R"},
			Usage:   "Keep the default rules when using -r",
		},
		&cli.BoolFlag{
			Name:    "offline",
			Usage:   "Disable installation of requirements and version checks",
			Sources: cli.EnvVars("ANSIBLE_LINT_OFFLINE"),
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Return non-zero exit code on warnings as well as errors",
		},
		&cli.BoolFlag{
			Name:  "generate-ignore",
			Usage: "Generate an ignore file listing every current violation",
		},
		&cli.StringFlag{
			Name:  "sarif-file",
			Usage: "Also write a SARIF report to this file",
		},
		&cli.BoolFlag{
			Name:    "list-rules",
			Aliases: []string{"L"},
			Usage:   "List all the rules",
		},
		&cli.BoolFlag{
			Name:    "list-tags",
			Aliases: []string{"T"},
			Usage:   "List all the tags and the rules they cover",
		},
		&cli.BoolFlag{
			Name:  "nocolor",
			Usage: "Disable colored output (also NO_COLOR)",
		},
		&cli.BoolFlag{
			Name:  "force-color",
			Usage: "Force colored output (also FORCE_COLOR)",
		},
		&cli.BoolFlag{
			Name:  "version",
			Usage: "Print version information and exit",
		},
	}
}

func formatUsage() string {
	names := make([]string, 0, len(reporter.Formats))
	for _, f := range reporter.Formats {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// configureLogging maps -v/-q counts onto logrus levels. Logs go to stderr
// so they never mix with report output.
func configureLogging(cmd *cli.Command, verbosity, quiet int) {
	logrus.SetOutput(cmd.Root().ErrWriter)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	level := logrus.WarnLevel
	switch {
	case quiet > 0:
		level = logrus.ErrorLevel
	case verbosity >= 2:
		level = logrus.DebugLevel
	case verbosity == 1:
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI application
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewApp().Run(ctx, os.Args)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		return cli.Exit("", ExitInterrupted)
	}
	return err
}
