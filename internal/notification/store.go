package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/civicreport/api/internal/cache"
)

// Store persists a whole notification list per owner. Load returns an empty
// list when nothing has been saved yet.
type Store interface {
	Load(ctx context.Context, owner string) ([]Notification, error)
	Save(ctx context.Context, owner string, items []Notification) error
}

// KV is the subset of the Redis cache the store needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type RedisStore struct {
	kv KV
}

func NewRedisStore(kv KV) *RedisStore {
	return &RedisStore{kv: kv}
}

func (s *RedisStore) Load(ctx context.Context, owner string) ([]Notification, error) {
	data, err := s.kv.Get(ctx, cache.NotificationKey(owner))
	if errors.Is(err, cache.ErrMiss) {
		return []Notification{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}

	var items []Notification
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	if items == nil {
		items = []Notification{}
	}
	return items, nil
}

func (s *RedisStore) Save(ctx context.Context, owner string, items []Notification) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}
	if err := s.kv.Set(ctx, cache.NotificationKey(owner), data); err != nil {
		return fmt.Errorf("save notifications: %w", err)
	}
	return nil
}

// MemoryStore keeps lists in process memory. It backs the server when Redis
// is unavailable.
type MemoryStore struct {
	mu    sync.Mutex
	lists map[string][]Notification
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string][]Notification)}
}

func (s *MemoryStore) Load(_ context.Context, owner string) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.lists[cache.NotificationKey(owner)]), nil
}

func (s *MemoryStore) Save(_ context.Context, owner string, items []Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[cache.NotificationKey(owner)] = cloneItems(items)
	return nil
}

func cloneItems(items []Notification) []Notification {
	out := make([]Notification, len(items))
	copy(out, items)
	return out
}
