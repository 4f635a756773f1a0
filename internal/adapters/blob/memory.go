package blob

import (
	"context"
	"fmt"
	"sync"

	"github.com/cafetrace/exportflow/internal/domain"
)

// MemoryStore mirrors MinioStore semantics in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, data []byte, _ string) (string, error) {
	hash := ContentHash(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.blobs[hash]; !exists {
		stored := make([]byte, len(data))
		copy(stored, data)
		s.blobs[hash] = stored
	}
	return hash, nil
}

func (s *MemoryStore) Get(_ context.Context, contentHash string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[contentHash]
	if !ok {
		return nil, fmt.Errorf("%w: blob %s", domain.ErrNotFound, contentHash)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
