package prompt

import (
	"context"
	"errors"
	"strings"
)

// Store errors.
var (
	// ErrNotFound is returned when no prompt exists with the given ID.
	ErrNotFound = errors.New("prompt not found")

	// ErrInvalidPrompt is returned when a prompt fails validation on
	// create or update.
	ErrInvalidPrompt = errors.New("invalid prompt")
)

// ListOptions narrows a listing. The zero value lists everything.
type ListOptions struct {
	// Query filters by case-insensitive substring over title,
	// description and tags.
	Query string

	// AuthorID restricts the listing to one user's prompts.
	AuthorID string
}

// Store is the storage contract for prompt libraries. Listings are
// ordered newest first.
type Store interface {
	GetAll(ctx context.Context, opts ListOptions) ([]Prompt, error)
	Get(ctx context.Context, id string) (*Prompt, error)
	Create(ctx context.Context, p *Prompt) error
	Update(ctx context.Context, p *Prompt) error
	Delete(ctx context.Context, id string) error

	// IncrementUsage bumps the usage counter by one.
	IncrementUsage(ctx context.Context, id string) error

	// Like bumps the like counter by one.
	Like(ctx context.Context, id string) error
}

// Normalize applies creation fallbacks in place: a blank title becomes
// "Untitled Prompt" and a blank category becomes "general".
func Normalize(p *Prompt) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		p.Title = "Untitled Prompt"
	}
	p.Category = strings.TrimSpace(p.Category)
	if p.Category == "" {
		p.Category = "general"
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
}
