package recovery

import (
	"fmt"
	"sync"
)

// StrictStrategy fails on the first malformed token.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy {
	return &StrictStrategy{}
}

func (s *StrictStrategy) OnError(Context, error, Location) Action {
	return ActionFail
}

// LenientStrategy accepts truncated literals, dictionaries and objects and
// records every error it let through. Once Limit errors have been accepted
// the next one fails; 0 means no limit. Safe for use by parallel object
// loaders.
type LenientStrategy struct {
	Limit int

	mu     sync.Mutex
	errors []error
}

func NewLenientStrategy() *LenientStrategy {
	return &LenientStrategy{}
}

// NewBoundedStrategy is a LenientStrategy that gives up after limit
// accepted errors.
func NewBoundedStrategy(limit int) *LenientStrategy {
	return &LenientStrategy{Limit: limit}
}

func (s *LenientStrategy) OnError(_ Context, err error, location Location) Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Limit > 0 && len(s.errors) >= s.Limit {
		return ActionFail
	}
	s.errors = append(s.errors, fmt.Errorf("%s: %w", location, err))
	return ActionFix
}

// Recorded returns a copy of the errors accepted so far.
func (s *LenientStrategy) Recorded() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errors...)
}
