// Package memory provides in-memory implementations of the driven store
// ports, used by service tests and as a reference for the semantics the
// SQLite adapters must match.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// Ensure BlobStore implements the interface.
var _ driven.BlobStore = (*BlobStore)(nil)

// BlobStore is an in-memory implementation of driven.BlobStore. The mutex
// held across CreateOrReference gives the same only-one-first-writer
// guarantee the SQLite adapter gets from its transaction.
type BlobStore struct {
	mu    sync.Mutex
	blobs map[string]domain.FileBlob
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]domain.FileBlob)}
}

// CreateOrReference atomically references an existing blob or inserts the
// candidate after a successful upload.
func (s *BlobStore) CreateOrReference(ctx context.Context, candidate domain.FileBlob, docID string, upload driven.UploadFunc) (*domain.FileBlob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.blobs[candidate.MD5]; ok {
		existing.RefCount++
		if !existing.References(docID) {
			existing.ReferencingDocs = append(existing.ReferencingDocs, docID)
		}
		existing.LastAccessedAt = time.Now().UTC()
		s.blobs[candidate.MD5] = existing
		out := existing
		return &out, true, nil
	}

	storageID, err := upload(ctx)
	if err != nil {
		return nil, false, err
	}

	candidate.StorageID = storageID
	candidate.RefCount = 1
	candidate.ReferencingDocs = []string{docID}
	s.blobs[candidate.MD5] = candidate
	out := candidate
	return &out, false, nil
}

// RemoveReference drops a document's reference. The row survives.
func (s *BlobStore) RemoveReference(_ context.Context, md5, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[md5]
	if !ok {
		return domain.ErrNotFound
	}

	if blob.RefCount > 0 {
		blob.RefCount--
	}
	docs := blob.ReferencingDocs[:0]
	for _, id := range blob.ReferencingDocs {
		if id != docID {
			docs = append(docs, id)
		}
	}
	blob.ReferencingDocs = docs
	s.blobs[md5] = blob
	return nil
}

// Get retrieves a blob row by MD5.
func (s *BlobStore) Get(_ context.Context, md5 string) (*domain.FileBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[md5]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := blob
	return &out, nil
}

// ListOrphaned returns rows with a zero reference count.
func (s *BlobStore) ListOrphaned(_ context.Context) ([]domain.FileBlob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orphans []domain.FileBlob
	for _, blob := range s.blobs {
		if blob.RefCount == 0 {
			orphans = append(orphans, blob)
		}
	}
	return orphans, nil
}

// Delete removes a blob row.
func (s *BlobStore) Delete(_ context.Context, md5 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[md5]; !ok {
		return domain.ErrNotFound
	}
	delete(s.blobs, md5)
	return nil
}
