package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/google/uuid"
)

var _ driven.ObjectStore = (*ObjectStore)(nil)

// ObjectStore is an in-memory implementation of driven.ObjectStore.
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// UploadErr and DeleteErr, when set, make the corresponding call
	// fail. Used to exercise failure paths in service tests.
	UploadErr error
	DeleteErr error
}

// NewObjectStore creates a new in-memory object store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

// Upload stores the payload under a fresh storage ID.
func (s *ObjectStore) Upload(_ context.Context, data []byte, _ domain.BlobMetadata) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UploadErr != nil {
		return "", s.UploadErr
	}
	storageID := uuid.NewString()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[storageID] = buf
	return storageID, nil
}

// Delete removes a stored payload.
func (s *ObjectStore) Delete(_ context.Context, storageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	if _, ok := s.objects[storageID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.objects, storageID)
	return nil
}

// Len reports how many payloads are held. Test helper.
func (s *ObjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
