// Package memory provides an in-memory prompt store.
//
// This package backs local development and tests, and serves as the
// store when no database is configured. It can be seeded from the
// bundled prompt library.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/prompt"
	"github.com/promptforge/promptforge/variables"
)

// Compile-time interface check
var _ prompt.Store = (*Store)(nil)

// Store keeps prompts in a mutex-guarded map. All returned prompts are
// copies; mutating them does not affect stored state.
type Store struct {
	mu      sync.RWMutex
	prompts map[string]prompt.Prompt
	nowFunc func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// NewStore creates an empty in-memory prompt store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		prompts: make(map[string]prompt.Prompt),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserts prompts as-is, preserving their IDs and timestamps.
// Existing entries with the same ID are overwritten.
func (s *Store) Seed(prompts []prompt.Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range prompts {
		s.prompts[p.ID] = clonePrompt(p)
	}
}

// GetAll returns prompts matching opts, newest first.
func (s *Store) GetAll(_ context.Context, opts prompt.ListOptions) ([]prompt.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]prompt.Prompt, 0, len(s.prompts))
	for _, p := range s.prompts {
		if opts.AuthorID != "" && p.AuthorID != opts.AuthorID {
			continue
		}
		if !p.Matches(opts.Query) {
			continue
		}
		out = append(out, clonePrompt(p))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Get returns the prompt with the given ID.
func (s *Store) Get(_ context.Context, id string) (*prompt.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prompts[id]
	if !ok {
		return nil, prompt.ErrNotFound
	}
	cloned := clonePrompt(p)
	return &cloned, nil
}

// Create stores a new prompt, assigning an ID and creation time when
// absent and applying the title/category fallbacks.
func (s *Store) Create(_ context.Context, p *prompt.Prompt) error {
	if p == nil {
		return prompt.ErrInvalidPrompt
	}
	prompt.Normalize(p)
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.nowFunc()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[p.ID] = clonePrompt(*p)
	return nil
}

// Update replaces the stored prompt and stamps UpdatedAt.
func (s *Store) Update(_ context.Context, p *prompt.Prompt) error {
	if p == nil || p.ID == "" {
		return prompt.ErrInvalidPrompt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.prompts[p.ID]
	if !ok {
		return prompt.ErrNotFound
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.nowFunc()
	s.prompts[p.ID] = clonePrompt(*p)
	return nil
}

// Delete removes the prompt with the given ID.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prompts[id]; !ok {
		return prompt.ErrNotFound
	}
	delete(s.prompts, id)
	return nil
}

// IncrementUsage bumps the usage counter by one.
func (s *Store) IncrementUsage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prompts[id]
	if !ok {
		return prompt.ErrNotFound
	}
	p.UsageCount++
	s.prompts[id] = p
	return nil
}

// Like bumps the like counter by one.
func (s *Store) Like(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prompts[id]
	if !ok {
		return prompt.ErrNotFound
	}
	p.Likes++
	s.prompts[id] = p
	return nil
}

func clonePrompt(p prompt.Prompt) prompt.Prompt {
	cloned := p
	cloned.Tags = append([]string(nil), p.Tags...)
	cloned.Variables = append([]variables.Variable(nil), p.Variables...)
	return cloned
}
