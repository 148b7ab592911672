// Package statestore provides persistence for builder/playground sessions.
//
// A session holds the ephemeral variable values a user has typed for one
// prompt, plus a monotonically increasing generation sequence number used to
// detect stale results when generation calls overlap. Sessions are never
// part of a stored prompt; they expire after a period of inactivity.
package statestore

import (
	"context"
	"errors"
	"time"
)

// defaultTTLHours is the default TTL for idle sessions (24 hours).
const defaultTTLHours = 24

// Session is the per-editing-session state for one prompt.
type Session struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id,omitempty"`
	PromptID       string            `json:"prompt_id,omitempty"`
	Values         map[string]string `json:"values"`
	Seq            uint64            `json:"seq"` // latest issued generation sequence number
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
}

// NewSession creates an empty session for the given prompt.
func NewSession(id, promptID string) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		PromptID:       promptID,
		Values:         make(map[string]string),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

// SetValue records a variable value on the session.
func (s *Session) SetValue(name, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[name] = value
}

// Store defines the interface for session persistence.
type Store interface {
	// Load retrieves a session by ID. Returns ErrNotFound if it doesn't exist.
	Load(ctx context.Context, id string) (*Session, error)

	// Save persists a session, creating or replacing it.
	Save(ctx context.Context, session *Session) error

	// Delete removes a session. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// NextSeq atomically issues the next generation sequence number for the
	// session. Callers attach it to a generation request and discard any
	// result whose number is no longer the latest issued.
	NextSeq(ctx context.Context, id string) (uint64, error)
}

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound       = errors.New("session not found")
	ErrInvalidID      = errors.New("session ID must not be empty")
	ErrInvalidSession = errors.New("session must not be nil")
)
