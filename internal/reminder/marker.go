package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultMarkerTTL = 48 * time.Hour

// Marker records which reminders were already delivered.
type Marker interface {
	// Claim records key and reports whether it was newly recorded.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a later attempt may deliver again.
	Release(ctx context.Context, key string) error
}

// MemoryMarker keeps claimed keys in process memory.
type MemoryMarker struct {
	mu   sync.Mutex
	keys map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryMarker(ttl time.Duration) *MemoryMarker {
	return &MemoryMarker{keys: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (m *MemoryMarker) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, expires := range m.keys {
		if !expires.After(now) {
			delete(m.keys, k)
		}
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryMarker) Release(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.keys, key)
	m.mu.Unlock()
	return nil
}

// RedisMarker stores claimed keys in Redis so that every instance sharing
// the database delivers a reminder once.
type RedisMarker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisMarker(client *redis.Client, ttl time.Duration) *RedisMarker {
	return &RedisMarker{client: client, ttl: ttl, prefix: "breeze:"}
}

func (r *RedisMarker) Claim(ctx context.Context, key string) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+key, 1, r.ttl).Result()
}

func (r *RedisMarker) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
