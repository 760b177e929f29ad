// Package session keeps server-side login sessions.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates the session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session identifies the logged-in user behind a cookie.
type Session struct {
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store issues and resolves session ids.
type Store interface {
	Create(ctx context.Context, s Session) (string, error)
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

const keyPrefix = "session:"

// RedisClient is the subset of *redis.Client the store needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps sessions in redis under session:<id> with a TTL.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisStore returns a RedisStore.
func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Create stores s and returns its new id.
func (r *RedisStore) Create(ctx context.Context, s Session) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}
	id := uuid.NewString()
	if err := r.client.Set(ctx, keyPrefix+id, b, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return id, nil
}

// Get resolves id.
func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	b, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("loading session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decoding session: %w", err)
	}
	return s, nil
}

// Delete removes id. Deleting an unknown id is not an error.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// MemoryStore keeps sessions in process, for tests and single-node runs.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	session Session
	expires time.Time
}

// NewMemoryStore returns a MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]memoryEntry)}
}

// Create stores s and returns its new id.
func (m *MemoryStore) Create(ctx context.Context, s Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.sessions[id] = memoryEntry{session: s, expires: m.now().Add(m.ttl)}
	return id, nil
}

// Get resolves id, dropping it once expired.
func (m *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if !m.now().Before(e.expires) {
		delete(m.sessions, id)
		return Session{}, ErrNotFound
	}
	return e.session, nil
}

// Delete removes id.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
