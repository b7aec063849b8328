package rules

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrDuplicateRule is returned when two rules share an id.
var ErrDuplicateRule = errors.New("duplicate rule id")

// Registry holds rule instances keyed by id.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry populated by rule packages' init().
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds rules to the default registry. It panics on invalid or
// duplicate ids; call it from init() in rule packages.
func Register(rules ...Rule) {
	if err := defaultRegistry.Register(rules...); err != nil {
		panic(err)
	}
}

// Register adds rules, rejecting empty and duplicate ids.
func (r *Registry) Register(rules ...Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rule := range rules {
		id := rule.Metadata().ID
		if strings.TrimSpace(id) == "" {
			return errors.New("rule has empty id")
		}
		if _, exists := r.rules[id]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, id)
		}
		r.rules[id] = rule
	}
	return nil
}

// Get returns the rule with id, or nil.
func (r *Registry) Get(id string) Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rules[id]
}

// All returns every registered rule sorted by id.
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	slices.SortFunc(out, func(a, b Rule) int {
		return strings.Compare(a.Metadata().ID, b.Metadata().ID)
	})
	return out
}

// Clone returns a registry holding the same rules, so callers can add
// custom rules without touching the default registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRegistry()
	for id, rule := range r.rules {
		c.rules[id] = rule
	}
	return c
}

// Filter returns a registry holding the rules whose metadata satisfies keep.
func (r *Registry) Filter(keep func(RuleMetadata) bool) *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRegistry()
	for id, rule := range r.rules {
		if keep(rule.Metadata()) {
			c.rules[id] = rule
		}
	}
	return c
}
