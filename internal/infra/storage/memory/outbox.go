package memory

import (
	"context"
	"sync"
	"time"

	"stayhub/internal/infra/outbox"
)

// OutboxStore keeps queued notification records in memory. A record claimed
// by a worker stays invisible to further Claim calls until it is marked sent
// or failed.
type OutboxStore struct {
	mu      sync.Mutex
	records map[string]*outbox.Record
	claimed map[string]string
	order   []string
}

func NewOutboxStore() *OutboxStore {
	return &OutboxStore{
		records: make(map[string]*outbox.Record),
		claimed: make(map[string]string),
	}
}

func (s *OutboxStore) Add(ctx context.Context, rec outbox.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	copyRec := rec
	s.records[rec.ID] = &copyRec
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*outbox.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range s.order {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		if _, inFlight := s.claimed[id]; inFlight {
			continue
		}
		if !rec.NotBefore.IsZero() && rec.NotBefore.After(now) {
			continue
		}
		s.claimed[id] = workerID
		copyRec := *rec
		return &copyRec, nil
	}
	return nil, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	delete(s.claimed, id)
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil
	}
	rec.Attempts++
	rec.NotBefore = retryAt
	rec.LastError = reason
	delete(s.claimed, id)
	return nil
}

// Pending reports how many records await publication. Used by tests.
func (s *OutboxStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

var _ outbox.Store = (*OutboxStore)(nil)
