package rules

import (
	"context"
	"sync"
)

// RunContext carries per-run state into rule hooks. One RunContext lives for
// exactly one lint run; rules that need to remember things across files keep
// that state here instead of on the rule value, so concurrent runs in one
// process never share it. Files are checked concurrently, so state here must
// not decide which matches are reported; use MatchError.WithUnique for that.
type RunContext struct {
	ctx context.Context

	// ProjectDir is the root of the linted project.
	ProjectDir string

	// Offline disables network access and external tool calls that need it.
	Offline bool

	// MockModules and MockRoles are names that should be treated as
	// installed even when they cannot be found.
	MockModules []string
	MockRoles   []string

	options map[string]map[string]any

	mu   sync.Mutex
	seen map[string]map[string]struct{}
}

// RunOption configures a RunContext.
type RunOption func(*RunContext)

// WithProjectDir sets the project root.
func WithProjectDir(dir string) RunOption {
	return func(rc *RunContext) { rc.ProjectDir = dir }
}

// WithOffline disables network access.
func WithOffline(offline bool) RunOption {
	return func(rc *RunContext) { rc.Offline = offline }
}

// WithMocks sets mock modules and roles.
func WithMocks(modules, roles []string) RunOption {
	return func(rc *RunContext) {
		rc.MockModules = modules
		rc.MockRoles = roles
	}
}

// WithRuleOptions sets per-rule configuration, keyed by rule id.
func WithRuleOptions(opts map[string]map[string]any) RunOption {
	return func(rc *RunContext) { rc.options = opts }
}

// NewRunContext creates the state for one run.
func NewRunContext(ctx context.Context, opts ...RunOption) *RunContext {
	if ctx == nil {
		ctx = context.Background()
	}
	rc := &RunContext{
		ctx:        ctx,
		ProjectDir: ".",
		seen:       make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Context returns the run's context for blocking work such as subprocesses.
func (rc *RunContext) Context() context.Context {
	return rc.ctx
}

// Options returns the user configuration for a rule, or nil.
func (rc *RunContext) Options(ruleID string) map[string]any {
	return rc.options[ruleID]
}

// Once reports true the first time it is called for (ruleID, key) during
// the run and false afterwards.
func (rc *RunContext) Once(ruleID, key string) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	keys, ok := rc.seen[ruleID]
	if !ok {
		keys = make(map[string]struct{})
		rc.seen[ruleID] = keys
	}
	if _, done := keys[key]; done {
		return false
	}
	keys[key] = struct{}{}
	return true
}
