package database

import (
	"context"
	"fmt"

	"github.com/Raj-Vaghela/AI-Architect/index"
	"github.com/pgvector/pgvector-go"
)

// InsertChunks stores a batch of chunks under the given (chunker version,
// embedding model) namespace. Re-inserting an already-seen chunk hash in the
// same namespace is a no-op, which makes chunking re-runs idempotent.
// Returns the number of newly inserted rows.
func (s *PostgresStore) InsertChunks(ctx context.Context, chunkerVersion, embeddingModel string, chunks []index.Chunk) (int64, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin chunk insert tx: %w", err)
	}
	defer tx.Rollback()

	const query = `
        INSERT INTO hf.card_chunks (
            chunk_hash, card_hash, chunk_index, chunk_text,
            token_count, embedding_model_name, chunker_version
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (chunker_version, embedding_model_name, chunk_hash) DO NOTHING
    `

	var inserted int64
	for _, c := range chunks {
		res, err := tx.ExecContext(ctx, query,
			c.ChunkHash, c.CardHash, c.ChunkIndex, c.Text,
			c.TokenCount, embeddingModel, chunkerVersion)
		if err != nil {
			return 0, fmt.Errorf("failed to insert chunk %s: %w", c.ChunkHash, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// SelectPendingChunks returns chunks with a NULL embedding for the exact
// namespace, in stable id order so resumed runs process the same sequence.
func (s *PostgresStore) SelectPendingChunks(ctx context.Context, chunkerVersion, embeddingModel string) ([]index.PendingChunk, error) {
	const query = `
        SELECT id, chunk_text, COALESCE(token_count, 0)
        FROM hf.card_chunks
        WHERE embedding IS NULL
          AND chunker_version = $1
          AND embedding_model_name = $2
        ORDER BY id
    `
	rows, err := s.DB.QueryContext(ctx, query, chunkerVersion, embeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending chunks: %w", err)
	}
	defer rows.Close()

	var chunks []index.PendingChunk
	for rows.Next() {
		var c index.PendingChunk
		if err := rows.Scan(&c.ID, &c.ChunkText, &c.TokenCount); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// SetChunkEmbedding fills in the embedding for one chunk. The guard on NULL
// means an existing embedding is never overwritten.
func (s *PostgresStore) SetChunkEmbedding(ctx context.Context, chunkID int64, embedding []float32) error {
	const query = `
        UPDATE hf.card_chunks
        SET embedding = $2
        WHERE id = $1 AND embedding IS NULL
    `
	if _, err := s.DB.ExecContext(ctx, query, chunkID, pgvector.NewVector(embedding)); err != nil {
		return fmt.Errorf("failed to set embedding for chunk %d: %w", chunkID, err)
	}
	return nil
}

// ChunkSimilarity is one chunk hit from the vector search, carrying the
// parent card hash so the orchestrator can group hits per card.
type ChunkSimilarity struct {
	CardHash   string
	Similarity float64
}

// SearchChunks runs cosine nearest-neighbor search over embedded chunks in
// the given namespace and returns the top limit hits.
func (s *PostgresStore) SearchChunks(ctx context.Context, queryEmbedding []float32, chunkerVersion, embeddingModel string, limit int) ([]ChunkSimilarity, error) {
	const query = `
        SELECT card_hash, 1 - (embedding <=> $1) AS similarity
        FROM hf.card_chunks
        WHERE embedding IS NOT NULL
          AND chunker_version = $2
          AND embedding_model_name = $3
        ORDER BY embedding <=> $1
        LIMIT $4
    `
	rows, err := s.DB.QueryContext(ctx, query,
		pgvector.NewVector(queryEmbedding), chunkerVersion, embeddingModel, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var hits []ChunkSimilarity
	for rows.Next() {
		var h ChunkSimilarity
		if err := rows.Scan(&h.CardHash, &h.Similarity); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *PostgresStore) GetChunkStats(ctx context.Context, chunkerVersion, embeddingModel string) (index.ChunkStats, error) {
	const query = `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE embedding IS NOT NULL),
            COUNT(*) FILTER (WHERE embedding IS NULL)
        FROM hf.card_chunks
        WHERE chunker_version = $1 AND embedding_model_name = $2
    `
	var stats index.ChunkStats
	err := s.DB.QueryRowContext(ctx, query, chunkerVersion, embeddingModel).
		Scan(&stats.TotalChunks, &stats.EmbeddedChunks, &stats.PendingChunks)
	if err != nil {
		return stats, fmt.Errorf("failed to collect chunk stats: %w", err)
	}
	return stats, nil
}
