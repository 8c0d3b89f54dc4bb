// Package file provides a filesystem-backed payload store. Payloads are
// written under a sharded directory tree keyed by storage ID, with a
// temp-file rename so readers never observe a partial write.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ObjectStore = (*Store)(nil)

// Store persists blob payloads on the local filesystem.
type Store struct {
	baseDir string
}

// NewStore creates a payload store rooted at baseDir. If baseDir is
// empty, defaults to ~/.corpora/blobs.
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".corpora", "blobs")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Upload stores the payload and returns its storage ID.
func (s *Store) Upload(ctx context.Context, data []byte, _ domain.BlobMetadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	storageID := uuid.NewString()
	dir := filepath.Join(s.baseDir, storageID[:2])
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating shard directory: %w", err)
	}

	final := filepath.Join(dir, storageID)
	tmp, err := os.CreateTemp(dir, storageID+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("finalising payload: %w", err)
	}
	return storageID, nil
}

// Get reads a stored payload.
func (s *Store) Get(ctx context.Context, storageID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(storageID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return data, nil
}

// Delete removes a stored payload.
func (s *Store) Delete(ctx context.Context, storageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(storageID)); err != nil {
		if os.IsNotExist(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("removing payload: %w", err)
	}
	return nil
}

func (s *Store) path(storageID string) string {
	if len(storageID) < 2 {
		return filepath.Join(s.baseDir, storageID)
	}
	return filepath.Join(s.baseDir, storageID[:2], storageID)
}
