package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/tinovyatkin/ansible-lint/internal/config"
	"github.com/tinovyatkin/ansible-lint/internal/ignore"
	"github.com/tinovyatkin/ansible-lint/internal/processor"
	"github.com/tinovyatkin/ansible-lint/internal/reporter"
	"github.com/tinovyatkin/ansible-lint/internal/rules"
	_ "github.com/tinovyatkin/ansible-lint/internal/rules/all" // register built-in rules
	"github.com/tinovyatkin/ansible-lint/internal/rules/custom"
	"github.com/tinovyatkin/ansible-lint/internal/rules/syntaxcheck"
	"github.com/tinovyatkin/ansible-lint/internal/runner"
	"github.com/tinovyatkin/ansible-lint/internal/version"
)

// Exit codes for the lint command.
const (
	// ExitSuccess indicates no failures were found.
	ExitSuccess = 0
	// ExitViolations indicates failures were found.
	ExitViolations = 2
	// ExitInvalidConfig indicates an invalid configuration or usage.
	ExitInvalidConfig = 3
	// ExitAnsibleMissing indicates ansible is required but not installed.
	ExitAnsibleMissing = 4
	// ExitNoFiles indicates no lintable files were found.
	ExitNoFiles = 5
	// ExitInterrupted indicates the run was canceled.
	ExitInterrupted = 130
)

// updateCheckTimeout bounds the release lookup done after a run.
const updateCheckTimeout = 3 * time.Second

func runLint(ctx context.Context, cmd *cli.Command) error {
	out, errOut := cmd.Root().Writer, cmd.Root().ErrWriter

	if cmd.Bool("version") {
		fmt.Fprintln(out, version.GetInfo(ctx).String())
		if !cmd.Bool("offline") {
			checkForUpdate(ctx, errOut)
		}
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		configureLogging(cmd, cmd.Count("verbose"), cmd.Count("quiet"))
		fmt.Fprintf(errOut, "ERROR: %v\n", err)
		return cli.Exit("", ExitInvalidConfig)
	}
	configureLogging(cmd, cfg.Verbosity, cfg.Quiet)
	if cfg.ConfigFile != "" {
		logrus.Infof("Loading config file %s", cfg.ConfigFile)
	}
	if cfg.Profile != "" {
		logrus.Infof("Profile %q is accepted but not enforced", cfg.Profile)
	}

	format, err := outputFormat(cmd, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "ERROR: %v\n", err)
		return cli.Exit("", ExitInvalidConfig)
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "ERROR: %v\n", err)
		return cli.Exit("", ExitInvalidConfig)
	}
	collection := rules.NewCollection(reg, rules.Options{
		Tags:       cfg.Tags,
		SkipList:   cfg.SkipList,
		EnableList: cfg.EnableList,
	})

	switch {
	case cmd.Bool("list-rules"):
		return listRules(out, format, metadata(collection.All()))
	case cmd.Bool("list-tags"):
		reporter.PrintTags(out, collection.ListTags())
		return nil
	}

	ruleOptions := cfg.RuleOptions()
	if err := collection.ValidateOptions(ruleOptions); err != nil {
		fmt.Fprintf(errOut, "ERROR: %v\n", err)
		return cli.Exit("", ExitInvalidConfig)
	}

	if collection.IsActive(syntaxcheck.ID) {
		if _, err := syntaxcheck.LookPath(); err != nil {
			if cfg.Strict {
				fmt.Fprintf(errOut, "ERROR: %v: syntax-check requires ansible-core\n", err)
				return cli.Exit("", ExitAnsibleMissing)
			}
			logrus.Warnf("%v: syntax-check will be skipped", err)
		}
	}

	generate := cmd.Bool("generate-ignore")
	ignoreFile := &ignore.File{}
	if !generate {
		if ignoreFile, err = ignore.Load(cfg.ProjectDir); err != nil {
			fmt.Fprintf(errOut, "ERROR: %v\n", err)
			return cli.Exit("", ExitInvalidConfig)
		}
	}

	rc := rules.NewRunContext(ctx,
		rules.WithProjectDir(cfg.ProjectDir),
		rules.WithOffline(cfg.Offline),
		rules.WithMocks(cfg.MockModules, cfg.MockRoles),
		rules.WithRuleOptions(ruleOptions),
	)
	pctx := &processor.Context{
		ProjectDir: cfg.ProjectDir,
		SkipList:   cfg.SkipList,
		WarnList:   cfg.WarnList,
		Ignore:     ignoreFile,
	}
	r, err := runner.New(collection, rc,
		runner.WithProjectDir(cfg.ProjectDir),
		runner.WithExcludes(cfg.ExcludePaths),
		runner.WithKinds(cfg.KindPatterns()),
		runner.WithProcessors(processor.Default(), pctx),
	)
	if err != nil {
		fmt.Fprintf(errOut, "ERROR: %v\n", err)
		return cli.Exit("", ExitInvalidConfig)
	}

	matches, err := r.Run(ctx, cmd.Args().Slice())
	switch {
	case errors.Is(err, runner.ErrNoFilesMatched):
		fmt.Fprintln(errOut, "ERROR: No lintable files found.")
		return cli.Exit("", ExitNoFiles)
	case errors.Is(err, context.Canceled):
		return cli.Exit("", ExitInterrupted)
	case err != nil:
		return err
	}
	files := len(r.Checked().Paths())

	if generate {
		return writeIgnoreFile(cfg.ProjectDir, matches, pctx.RelPath, errOut)
	}

	color := colorEnabled(cmd, out)
	opts := reporter.Options{
		Format:      format,
		Writer:      out,
		Color:       color,
		ToolVersion: version.Version(),
		Rules:       metadata(collection.Rules()),
	}
	if err := writeReport(opts, matches); err != nil {
		return err
	}
	if config.GitHubActions() && format != reporter.FormatGitHub {
		annotations := opts
		annotations.Format = reporter.FormatGitHub
		if err := writeReport(annotations, matches); err != nil {
			return err
		}
	}
	if cfg.SarifFile != "" {
		if err := writeSARIF(cfg.SarifFile, opts, matches); err != nil {
			fmt.Fprintf(errOut, "ERROR: %v\n", err)
			return cli.Exit("", ExitInvalidConfig)
		}
	}

	summary := reporter.Summarize(matches, files, cfg.Strict)
	if cfg.Quiet == 0 {
		reporter.PrintSummary(errOut, summary, colorEnabled(cmd, errOut))
	}
	if !cfg.Offline {
		checkForUpdate(ctx, errOut)
	}

	if !summary.Passed() {
		return cli.Exit("", ExitViolations)
	}
	return nil
}

// loadConfig layers the command line over the loaded configuration.
// List flags extend the configured lists; scalar flags replace them.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	projectDir := cmd.String("project-dir")

	var (
		cfg *config.Config
		err error
	)
	if path := cmd.String("config-file"); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		dir := projectDir
		if dir == "" {
			dir = "."
		}
		cfg, err = config.Load(dir)
	}
	if err != nil {
		return nil, err
	}

	if projectDir != "" {
		cfg.ProjectDir = projectDir
	}
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}

	cfg.ExcludePaths = append(cfg.ExcludePaths, splitList(cmd.StringSlice("exclude"))...)
	cfg.SkipList = append(cfg.SkipList, splitList(cmd.StringSlice("skip-list"))...)
	cfg.WarnList = append(cfg.WarnList, splitList(cmd.StringSlice("warn-list"))...)
	cfg.EnableList = append(cfg.EnableList, splitList(cmd.StringSlice("enable-list"))...)
	cfg.Tags = append(cfg.Tags, splitList(cmd.StringSlice("tags"))...)
	cfg.RulesDirs = append(cfg.RulesDirs, cmd.StringSlice("rulesdir")...)

	if cmd.IsSet("use-default-rules") {
		cfg.UseDefaultRules = cmd.Bool("use-default-rules")
	}
	if cmd.IsSet("offline") {
		cfg.Offline = cmd.Bool("offline")
	}
	if cmd.IsSet("strict") {
		cfg.Strict = cmd.Bool("strict")
	}
	if cmd.IsSet("parseable") {
		cfg.Parseable = cmd.Bool("parseable")
	}
	if cmd.IsSet("sarif-file") {
		cfg.SarifFile = cmd.String("sarif-file")
	}
	cfg.Verbosity += cmd.Count("verbose")
	cfg.Quiet += cmd.Count("quiet")
	return cfg, nil
}

// splitList accepts both repeated flags and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for item := range strings.SplitSeq(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func outputFormat(cmd *cli.Command, cfg *config.Config) (reporter.Format, error) {
	name := cmd.String("format")
	if name == "" && cfg.Parseable {
		name = string(reporter.FormatPEP8)
	}
	format, err := reporter.ParseFormat(name)
	if err != nil {
		return "", err
	}
	if cfg.Quiet >= 2 && !cmd.IsSet("format") {
		format = reporter.FormatQuiet
	}
	return format, nil
}

// buildRegistry selects the rules of the run. Custom rule directories
// replace the built-in rules, except the unskippable ones, unless default
// rules are requested too.
func buildRegistry(cfg *config.Config) (*rules.Registry, error) {
	if len(cfg.RulesDirs) == 0 {
		return rules.DefaultRegistry().Clone(), nil
	}

	reg := rules.DefaultRegistry().Clone()
	if !cfg.UseDefaultRules {
		reg = rules.DefaultRegistry().Filter(func(md rules.RuleMetadata) bool {
			return md.HasTag(rules.TagUnskippable)
		})
	}
	loaded, err := custom.Load(cfg.RulesDirs)
	if err != nil {
		return nil, err
	}
	if err := reg.Register(loaded...); err != nil {
		return nil, err
	}
	return reg, nil
}

func metadata(rs []rules.Rule) []rules.RuleMetadata {
	out := make([]rules.RuleMetadata, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Metadata())
	}
	return out
}

func colorEnabled(cmd *cli.Command, w io.Writer) bool {
	switch {
	case cmd.Bool("force-color") || os.Getenv("FORCE_COLOR") != "":
		return config.ColorMode("always")
	case cmd.Bool("nocolor") || termenv.EnvNoColor():
		return config.ColorMode("never")
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return config.ColorMode("auto") && termenv.NewOutput(f).ColorProfile() != termenv.Ascii
}

func writeReport(opts reporter.Options, matches []rules.MatchError) error {
	r, err := reporter.New(opts)
	if err != nil {
		return err
	}
	return r.Report(matches)
}

func writeSARIF(path string, opts reporter.Options, matches []rules.MatchError) error {
	report, err := reporter.BuildSARIF(matches, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.PrettyWrite(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeIgnoreFile(projectDir string, matches []rules.MatchError, relPath func(string) string, errOut io.Writer) error {
	path := filepath.Join(projectDir, filepath.FromSlash(ignore.Names[0]))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ignore.Generate(f, matches, relPath); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(errOut, "Wrote %d violation(s) to %s\n", len(matches), path)
	return nil
}

func checkForUpdate(ctx context.Context, w io.Writer) {
	ctx, cancel := context.WithTimeout(ctx, updateCheckTimeout)
	defer cancel()

	update, err := version.NewUpdateChecker().Check(ctx, version.Version())
	if err != nil {
		logrus.Warnf("Unable to check for a newer release: %v", err)
		return
	}
	if update != nil {
		fmt.Fprintln(w, update.String())
	}
}
