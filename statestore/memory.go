package statestore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore provides an in-memory implementation of the Store interface.
// It is thread-safe and suitable for development, testing, and
// single-instance deployments. For distributed systems, use RedisStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryTTL sets the idle time after which a session is discarded.
// Expired sessions are dropped lazily on access. Set to 0 for no expiration.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Load retrieves a session by ID.
// Returns a deep copy to prevent external mutations.
func (s *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	if s.expired(session) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}

	session.LastAccessedAt = time.Now()
	return copySession(session), nil
}

// Save persists a session. If it already exists, it is replaced.
func (s *MemoryStore) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrInvalidSession
	}
	if session.ID == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copySession(session)
	stored.LastAccessedAt = time.Now()

	// Preserve a previously issued sequence number so a Save from a stale
	// snapshot cannot rewind the counter.
	if existing, ok := s.sessions[session.ID]; ok && existing.Seq > stored.Seq {
		stored.Seq = existing.Seq
	}

	s.sessions[session.ID] = stored
	return nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// NextSeq atomically issues the next generation sequence number.
// The session is created on first use so anonymous playground runs
// get overlap protection without an explicit Save.
func (s *MemoryStore) NextSeq(ctx context.Context, id string) (uint64, error) {
	if id == "" {
		return 0, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists || s.expired(session) {
		session = NewSession(id, "")
		s.sessions[id] = session
	}

	session.Seq++
	session.LastAccessedAt = time.Now()
	return session.Seq, nil
}

// expired reports whether the session passed its idle TTL.
// Caller must hold the lock.
func (s *MemoryStore) expired(session *Session) bool {
	return s.ttl > 0 && time.Since(session.LastAccessedAt) > s.ttl
}

// copySession returns a deep copy so callers cannot mutate stored state.
func copySession(session *Session) *Session {
	dup := *session
	dup.Values = make(map[string]string, len(session.Values))
	for k, v := range session.Values {
		dup.Values[k] = v
	}
	return &dup
}
