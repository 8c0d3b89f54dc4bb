package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunks replaces a document's fragments in one transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, docID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, doc_id, text, start_index, end_index, tokens, type, title, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, chunk.ID, docID, chunk.Text, chunk.StartIndex, chunk.EndIndex,
			chunk.Tokens, string(chunk.Type), chunk.Title, chunk.Position); err != nil {
			return fmt.Errorf("inserting chunk: %w", err)
		}
	}
	return tx.Commit()
}

// GetChunks returns a document's fragments in position order.
func (s *chunkStore) GetChunks(ctx context.Context, docID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, doc_id, text, start_index, end_index, tokens, type, title, position
		FROM chunks WHERE doc_id = ? ORDER BY position
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var chunkType string
		if err := rows.Scan(&chunk.ID, &chunk.DocID, &chunk.Text, &chunk.StartIndex,
			&chunk.EndIndex, &chunk.Tokens, &chunkType, &chunk.Title, &chunk.Position); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Type = domain.ChunkType(chunkType)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	if chunks == nil {
		return nil, domain.ErrNotFound
	}
	return chunks, nil
}

// DeleteChunks removes a document's fragments.
func (s *chunkStore) DeleteChunks(ctx context.Context, docID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}
