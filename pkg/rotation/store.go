package rotation

import (
	"context"
	"sync"
)

// Store 轮换记忆持久化接口，按组织单位隔离
type Store interface {
	Load(ctx context.Context, unit string) ([]string, error)
	Save(ctx context.Context, unit string, names []string) error
	Reset(ctx context.Context, unit string) error
}

// MemoryStore 进程内存储
type MemoryStore struct {
	mu    sync.RWMutex
	units map[string][]string
}

// NewMemoryStore 创建进程内存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{units: make(map[string][]string)}
}

// Load 实现 Store
func (s *MemoryStore) Load(_ context.Context, unit string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := s.units[unit]
	out := make([]string, len(names))
	copy(out, names)
	return out, nil
}

// Save 实现 Store
func (s *MemoryStore) Save(_ context.Context, unit string, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]string, len(names))
	copy(cp, names)
	s.units[unit] = cp
	return nil
}

// Reset 实现 Store
func (s *MemoryStore) Reset(_ context.Context, unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.units, unit)
	return nil
}
