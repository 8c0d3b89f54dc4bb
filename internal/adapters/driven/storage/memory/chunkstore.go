package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu     sync.RWMutex
	chunks map[string][]domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[string][]domain.Chunk)}
}

// SaveChunks replaces a document's fragments.
func (s *ChunkStore) SaveChunks(_ context.Context, docID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]domain.Chunk, len(chunks))
	copy(buf, chunks)
	s.chunks[docID] = buf
	return nil
}

// GetChunks returns a document's fragments in position order.
func (s *ChunkStore) GetChunks(_ context.Context, docID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.chunks[docID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.Chunk, len(chunks))
	copy(out, chunks)
	return out, nil
}

// DeleteChunks removes a document's fragments.
func (s *ChunkStore) DeleteChunks(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.chunks, docID)
	return nil
}
