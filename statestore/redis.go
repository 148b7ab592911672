package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore provides a Redis-backed implementation of the Store interface.
// It uses JSON serialization for session storage and TTL-based cleanup, and
// is suitable for deployments with more than one application instance.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the time-to-live for sessions. After this duration of
// inactivity, sessions are automatically deleted. Default is 24 hours.
// Set to 0 for no expiration.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for Redis keys. Default is "promptforge".
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a new Redis-backed session store.
//
// Example:
//
//	store := NewRedisStore(
//	    redis.NewClient(&redis.Options{Addr: "localhost:6379"}),
//	    WithTTL(2 * time.Hour),
//	)
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		ttl:    defaultTTLHours * time.Hour,
		prefix: "promptforge",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Load retrieves a session by ID from Redis. TTL is idle time, matching
// the in-memory store: reading a session keeps it and its sequence
// counter alive.
func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	if s.ttl > 0 {
		pipe := s.client.Pipeline()
		pipe.Expire(ctx, s.sessionKey(id), s.ttl)
		pipe.Expire(ctx, s.seqKey(id), s.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("redis expire failed: %w", err)
		}
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Save persists a session to Redis with TTL.
// The sequence counter lives under its own key (see NextSeq), so a Save from
// a stale snapshot cannot rewind it.
func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrInvalidSession
	}
	if session.ID == "" {
		return ErrInvalidID
	}

	session.LastAccessedAt = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, s.sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes a session and its sequence counter.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	removed, err := s.client.Del(ctx, s.sessionKey(id), s.seqKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// NextSeq atomically issues the next generation sequence number using INCR.
func (s *RedisStore) NextSeq(ctx context.Context, id string) (uint64, error) {
	if id == "" {
		return 0, ErrInvalidID
	}

	key := s.seqKey(id)
	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr failed: %w", err)
	}
	return uint64(incr.Val()), nil
}

// Ping verifies connectivity to Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + ":session:" + id
}

func (s *RedisStore) seqKey(id string) string {
	return s.prefix + ":session:" + id + ":seq"
}
