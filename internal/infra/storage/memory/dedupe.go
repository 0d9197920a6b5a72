package memory

import (
	"context"
	"sync"

	"stayhub/internal/app/notify"
)

// DedupeStore records webhook side-effect keys in memory.
type DedupeStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDedupeStore() *DedupeStore {
	return &DedupeStore{seen: make(map[string]struct{})}
}

func (s *DedupeStore) SetIfAbsent(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}

func (s *DedupeStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, key)
	return nil
}

var _ notify.DedupeStore = (*DedupeStore)(nil)
