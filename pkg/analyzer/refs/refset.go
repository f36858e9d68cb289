package refs

import (
	"sort"
	"sync"
)

// ReferenceSet is a deduplicated set of reference tokens: asset filenames or
// relative paths that some source file was found to reference. It only grows
// and is safe for concurrent use.
type ReferenceSet struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

// NewReferenceSet creates a set seeded with tokens.
func NewReferenceSet(tokens ...string) *ReferenceSet {
	s := &ReferenceSet{tokens: make(map[string]struct{}, len(tokens))}
	for _, t := range tokens {
		s.tokens[t] = struct{}{}
	}
	return s
}

// Add inserts a token.
func (s *ReferenceSet) Add(token string) {
	s.mu.Lock()
	s.tokens[token] = struct{}{}
	s.mu.Unlock()
}

// Contains reports whether token is in the set.
func (s *ReferenceSet) Contains(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

// Len returns the number of tokens.
func (s *ReferenceSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Tokens returns a sorted copy of the tokens.
func (s *ReferenceSet) Tokens() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.tokens))
	for t := range s.tokens {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same tokens.
func (s *ReferenceSet) Equal(other *ReferenceSet) bool {
	if s == nil || other == nil {
		return s == other
	}
	a, b := s.Tokens(), other.Tokens()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
