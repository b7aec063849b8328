// Package config provides configuration loading and discovery for ansible-lint.
//
// Configuration is loaded from multiple sources with the following priority
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (ANSIBLE_LINT_* prefix)
//  3. Config file (.ansible-lint and friends, closest to the project)
//  4. Built-in defaults
//
// Config file discovery walks up from the project directory until a config
// file is found or the repository root (a directory holding .git) has been
// checked. The closest config wins (no merging).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"

	"github.com/tinovyatkin/ansible-lint/internal/lintable"
)

// ErrInvalidConfig wraps every configuration loading failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// FileNames defines the config file names to search for, in priority order.
var FileNames = []string{
	".ansible-lint",
	".ansible-lint.yml",
	".ansible-lint.yaml",
	".config/ansible-lint.yml",
	".config/ansible-lint.yaml",
}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "ANSIBLE_LINT_"

// Config represents the complete ansible-lint configuration.
type Config struct {
	// ExcludePaths are path prefixes or globs dropped during discovery.
	ExcludePaths []string `koanf:"exclude_paths"`

	SkipList   []string `koanf:"skip_list"`
	WarnList   []string `koanf:"warn_list"`
	EnableList []string `koanf:"enable_list"`
	Tags       []string `koanf:"tags"`

	// RulesDirs are directories of custom rule definitions.
	RulesDirs []string `koanf:"rulesdir"`
	// UseDefaultRules keeps the built-in rules alongside RulesDirs. Without
	// RulesDirs the built-in rules are always used.
	UseDefaultRules bool `koanf:"use_default_rules"`

	Offline   bool `koanf:"offline"`
	Strict    bool `koanf:"strict"`
	Quiet     int  `koanf:"quiet"`
	Verbosity int  `koanf:"verbosity"`
	Parseable bool `koanf:"parseable"`

	ProjectDir string `koanf:"project_dir"`

	// Kinds extends kind detection: a list of {kind: glob}.
	Kinds []map[string]string `koanf:"kinds"`

	MockModules []string `koanf:"mock_modules"`
	MockRoles   []string `koanf:"mock_roles"`

	LoopVarPrefix    string `koanf:"loop_var_prefix"`
	VarNamingPattern string `koanf:"var_naming_pattern"`

	// MaxLineLength is a shortcut for rules.yaml.max_line_length.
	MaxLineLength int `koanf:"max_line_length"`

	SarifFile            string `koanf:"sarif_file"`
	SkipActionValidation bool   `koanf:"skip_action_validation"`

	// Rules holds per-rule options keyed by rule id.
	Rules map[string]map[string]any `koanf:"rules"`

	// Profile is accepted for compatibility and only reported.
	Profile string `koanf:"profile"`

	// ConfigFile is the path to the config file that was loaded (if any).
	// This is metadata, not loaded from config.
	ConfigFile string `koanf:"-"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		WarnList:             []string{"experimental", "jinja[spacing]", "fqcn[deep]"},
		SkipActionValidation: true,
	}
}

// Load discovers the config file for projectDir and loads it.
func Load(projectDir string) (*Config, error) {
	return loadWithConfigPath(Discover(projectDir))
}

// LoadFromFile loads configuration from a specific config file path.
// Unlike Load, it does not perform config discovery.
func LoadFromFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return loadWithConfigPath(configPath)
}

func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	// 2. Load config file if provided. A file with no content is valid.
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, configPath, err)
		}
	}

	// 3. Load environment variables (ANSIBLE_LINT_* prefix)
	if err := k.Load(env.Provider(".", env.Opt{Prefix: EnvPrefix, TransformFunc: envTransform}), nil); err != nil {
		return nil, err
	}

	// 4. Unmarshal into config struct
	cfg := &Config{}
	var md mapstructure.Metadata
	err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			Metadata:         &md,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, configPath, err)
	}
	for _, key := range md.Unused {
		logrus.Warnf("%s: unknown configuration key %q ignored", configPath, key)
	}

	cfg.ConfigFile = configPath
	if cfg.ProjectDir == "" && configPath != "" {
		cfg.ProjectDir = projectDirOf(configPath)
	}
	return cfg, nil
}

// projectDirOf returns the directory a config file configures: its own
// directory, or the parent of .config.
func projectDirOf(configPath string) string {
	dir := filepath.Dir(configPath)
	if filepath.Base(dir) == ".config" {
		return filepath.Dir(dir)
	}
	return dir
}

// listKeys are the configuration keys holding lists; their environment
// values are comma separated.
var listKeys = []string{
	"exclude_paths", "skip_list", "warn_list", "enable_list", "tags",
	"rulesdir", "mock_modules", "mock_roles",
}

// scalarKeys are the remaining keys settable from the environment.
var scalarKeys = []string{
	"use_default_rules", "offline", "strict", "quiet", "verbosity",
	"parseable", "project_dir", "loop_var_prefix", "var_naming_pattern",
	"max_line_length", "sarif_file", "skip_action_validation", "profile",
}

// envTransform maps ANSIBLE_LINT_SKIP_LIST=a,b to skip_list: [a b].
// Variables naming no known key are ignored.
func envTransform(k, v string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	switch {
	case slices.Contains(listKeys, key):
		var items []string
		for item := range strings.SplitSeq(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	case slices.Contains(scalarKeys, key):
		return key, v
	default:
		return "", nil
	}
}

// Discover finds the config file for a project directory. It walks up the
// directory tree, checking for config files at each level, and stops after
// the directory holding .git. Returns empty string if no config file is
// found.
func Discover(projectDir string) string {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return ""
	}

	for {
		// Check each config file name in priority order
		for _, name := range FileNames {
			configPath := filepath.Join(dir, filepath.FromSlash(name))
			if fileExists(configPath) {
				return configPath
			}
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		// Move up to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return ""
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// KindPatterns returns the configured kinds as detection patterns.
func (c *Config) KindPatterns() []lintable.KindPattern {
	return lintable.ParseKinds(c.Kinds)
}

// RuleOptions returns the per-rule options with top-level shortcuts folded
// in.
func (c *Config) RuleOptions() map[string]map[string]any {
	out := make(map[string]map[string]any, len(c.Rules)+1)
	for id, opts := range c.Rules {
		out[id] = opts
	}
	if c.MaxLineLength > 0 {
		yamlOpts := make(map[string]any, len(out["yaml"])+1)
		for k, v := range out["yaml"] {
			yamlOpts[k] = v
		}
		if _, ok := yamlOpts["max_line_length"]; !ok {
			yamlOpts["max_line_length"] = c.MaxLineLength
		}
		out["yaml"] = yamlOpts
	}
	return out
}
