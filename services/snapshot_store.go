package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore keeps encoded snapshots by key. Put fully replaces the
// value stored under key.
type SnapshotStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte) error
}

// MemorySnapshotStore lives as long as the process.
type MemorySnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{data: make(map[string][]byte)}
}

func (m *MemorySnapshotStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemorySnapshotStore) Put(_ context.Context, key string, data []byte) error {
	v := make([]byte, len(data))
	copy(v, data)

	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()
	return nil
}

func (m *MemorySnapshotStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// RedisSnapshotStore keeps snapshots under "<prefix><key>" without expiry.
type RedisSnapshotStore struct {
	Redis  *redis.Client
	prefix string
}

func NewRedisSnapshotStore(redisClient *redis.Client, prefix string) *RedisSnapshotStore {
	return &RedisSnapshotStore{Redis: redisClient, prefix: prefix}
}

func (s *RedisSnapshotStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.Redis.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("snapshot get %s: %w", key, err)
	}
	return data, true, nil
}

func (s *RedisSnapshotStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.Redis.Set(ctx, s.prefix+key, string(data), 0).Err(); err != nil {
		return fmt.Errorf("snapshot set %s: %w", key, err)
	}
	return nil
}
