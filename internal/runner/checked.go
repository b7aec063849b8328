package runner

import (
	"slices"
	"sync"
)

// CheckedSet records the normalized paths already visited. It is safe for
// concurrent use and may be shared between runs so that files reached
// through several entry points are checked once.
type CheckedSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewCheckedSet creates a set holding paths.
func NewCheckedSet(paths ...string) *CheckedSet {
	s := &CheckedSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		s.paths[p] = struct{}{}
	}
	return s
}

// Add records path and reports whether it was new.
func (s *CheckedSet) Add(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.paths[path]; ok {
		return false
	}
	s.paths[path] = struct{}{}
	return true
}

// Contains reports whether path was recorded.
func (s *CheckedSet) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	return ok
}

// Paths returns the recorded paths sorted.
func (s *CheckedSet) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}
