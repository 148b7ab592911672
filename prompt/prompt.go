// Package prompt defines the canonical prompt model and the storage
// contract for prompt libraries.
//
// Stored data reaches this package in two historical shapes: the legacy
// seed-library shape and the database row shape. Both are converted at
// the storage boundary (see adapter.go), so everything above the store
// only ever sees the canonical Prompt type.
package prompt

import (
	"strings"
	"time"

	"github.com/promptforge/promptforge/variables"
)

// Prompt is the canonical prompt record.
type Prompt struct {
	ID          string               `json:"id" yaml:"id"`
	Title       string               `json:"title" yaml:"title"`
	Description string               `json:"description" yaml:"description"`
	Category    string               `json:"category" yaml:"category"`
	Tags        []string             `json:"tags" yaml:"tags"`
	Template    string               `json:"template" yaml:"template"`
	Variables   []variables.Variable `json:"variables" yaml:"variables"`

	// Author is a display name; AuthorID is the owning user's ID when
	// the prompt came from the database, empty for seed prompts.
	Author   string `json:"author" yaml:"author"`
	AuthorID string `json:"author_id,omitempty" yaml:"author_id,omitempty"`

	Likes      int `json:"likes" yaml:"likes"`
	UsageCount int `json:"usage_count" yaml:"usage_count"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// VariableNames returns the declared variable names in order.
func (p *Prompt) VariableNames() []string {
	if len(p.Variables) == 0 {
		return nil
	}
	names := make([]string, len(p.Variables))
	for i, v := range p.Variables {
		names[i] = v.Name
	}
	return names
}

// Matches reports whether the prompt matches a search query using
// case-insensitive substring matching over title, description and tags.
// An empty query matches everything.
func (p *Prompt) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// Filter returns the prompts matching the query, preserving order.
func Filter(prompts []Prompt, query string) []Prompt {
	if strings.TrimSpace(query) == "" {
		return prompts
	}
	matched := make([]Prompt, 0, len(prompts))
	for _, p := range prompts {
		if p.Matches(query) {
			matched = append(matched, p)
		}
	}
	return matched
}
