package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/ride-share/internal/models"
)

var ErrNoSession = errors.New("no active session")

// SessionStore holds issued sessions keyed by their opaque token.
type SessionStore interface {
	Save(ctx context.Context, s models.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (models.Session, error)
	Delete(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions in Redis so every API instance
// sees the same session set.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(addr, password string) *RedisSessionStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisSessionStore{client: c}
}

func sessionKey(token string) string { return "session:" + token }

func (r *RedisSessionStore) Save(ctx context.Context, s models.Session, ttl time.Duration) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(s.Token), b, ttl).Err()
}

func (r *RedisSessionStore) Get(ctx context.Context, token string) (models.Session, error) {
	b, err := r.client.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Session{}, ErrNoSession
	}
	if err != nil {
		return models.Session{}, err
	}
	var s models.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return models.Session{}, err
	}
	return s, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionKey(token)).Err()
}

// MemorySessionStore backs local runs and tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	s       models.Session
	expires time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession)}
}

func (m *MemorySessionStore) Save(ctx context.Context, s models.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = memorySession{s: s, expires: time.Now().Add(ttl)}
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, token string) (models.Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[token]
	m.mu.RUnlock()
	if !ok {
		return models.Session{}, ErrNoSession
	}
	if time.Now().After(e.expires) {
		m.mu.Lock()
		delete(m.sessions, token)
		m.mu.Unlock()
		return models.Session{}, ErrNoSession
	}
	return e.s, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
