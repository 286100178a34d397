package index

import "context"

// CardSource is a raw card row that still needs its derived fields
// (normalized hash and token count).
type CardSource struct {
	ModelID  string
	CardText string
}

// CanonicalCard is a canonical card joined with its text, ready to chunk.
type CanonicalCard struct {
	CardHash         string
	CanonicalModelID string
	CardText         string
	TokenCount       int
}

// PendingChunk is a stored chunk awaiting its embedding.
type PendingChunk struct {
	ID         int64
	ChunkText  string
	TokenCount int
}

// ExclusionCounts reports newly excluded cards per rule for one run.
type ExclusionCounts struct {
	NoContent int64
	TooShort  int64
	TooLong   int64
}

func (e ExclusionCounts) Total() int64 {
	return e.NoContent + e.TooShort + e.TooLong
}

// CorpusStats summarizes the card corpus for the build report.
type CorpusStats struct {
	TotalModels    int64
	TotalCards     int64
	ExcludedCards  int64
	CanonicalCards int64
}

// ChunkStats summarizes one chunk namespace for the build report.
type ChunkStats struct {
	TotalChunks    int64
	EmbeddedChunks int64
	PendingChunks  int64
}

// Store is the persistence surface the index builder depends on. The
// Postgres store implements it.
type Store interface {
	SelectCardsMissingDerived(ctx context.Context, limit int) ([]CardSource, error)
	SetCardDerived(ctx context.Context, modelID, cardHash string, tokenCount int) error
	ApplyExclusionRules(ctx context.Context) (ExclusionCounts, error)
	SelectNonExcludedCards(ctx context.Context) ([]CardRecord, error)
	UpsertCanonicalMapping(ctx context.Context, groups []CanonicalGroup, mappings []CardMapping) error
	SelectCanonicalCards(ctx context.Context, limit int) ([]CanonicalCard, error)
	InsertChunks(ctx context.Context, chunkerVersion, embeddingModel string, chunks []Chunk) (int64, error)
	SelectPendingChunks(ctx context.Context, chunkerVersion, embeddingModel string) ([]PendingChunk, error)
	SetChunkEmbedding(ctx context.Context, chunkID int64, embedding []float32) error
	GetCorpusStats(ctx context.Context) (CorpusStats, error)
	GetChunkStats(ctx context.Context, chunkerVersion, embeddingModel string) (ChunkStats, error)
}

// Embedder produces an embedding vector for one chunk of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
