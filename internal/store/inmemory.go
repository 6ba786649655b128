package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process conversation store for local/dev use.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]Turn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string][]Turn)}
}

func (s *InMemoryStore) Append(_ context.Context, counterpart string, turn Turn) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp == 0 {
		turn.Timestamp = time.Now().UnixMilli()
	}
	s.conversations[counterpart] = append(s.conversations[counterpart], turn)
	return turn, nil
}

func (s *InMemoryStore) List(_ context.Context, counterpart string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.conversations[counterpart]
	out := make([]Turn, len(arr))
	copy(out, arr)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
