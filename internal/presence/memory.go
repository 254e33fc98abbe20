package presence

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore хранит множества соединений в памяти процесса. Годится для
// тестов и single-instance запуска; в многоинстансном деплое обязателен
// RedisStore.
type MemoryStore struct {
	mu   sync.Mutex
	sets map[uuid.UUID]map[uuid.UUID]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sets: make(map[uuid.UUID]map[uuid.UUID]bool)}
}

func (s *MemoryStore) Add(ctx context.Context, userID, connID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sets[userID]; !ok {
		s.sets[userID] = make(map[uuid.UUID]bool)
	}
	s.sets[userID][connID] = true
	return int64(len(s.sets[userID])), nil
}

func (s *MemoryStore) Remove(ctx context.Context, userID, connID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[userID]
	if !ok {
		return 0, nil
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(s.sets, userID)
		return 0, nil
	}
	return int64(len(set)), nil
}

func (s *MemoryStore) Count(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.sets[userID])), nil
}
