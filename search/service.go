package search

import (
	"context"
	"sort"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/Raj-Vaghela/AI-Architect/config"
	"github.com/Raj-Vaghela/AI-Architect/database"
	apperrors "github.com/Raj-Vaghela/AI-Architect/errors"
	"github.com/Raj-Vaghela/AI-Architect/index"
	"github.com/Raj-Vaghela/AI-Architect/ranking"
)

// Aggregation weights for turning per-chunk similarities into one score per
// card. Max dominates so a single strong hit outweighs many weak ones.
const (
	maxWeight  = 0.7
	meanWeight = 0.3
)

const embeddingCacheSize = 256

// Store is the slice of the database the search service needs.
type Store interface {
	SearchChunks(ctx context.Context, queryEmbedding []float32, chunkerVersion, embeddingModel string, limit int) ([]database.ChunkSimilarity, error)
	SelectModelsByCardHashes(ctx context.Context, cardHashes []string, filters database.ModelFilters) ([]ranking.ModelCandidate, error)
	SearchInstances(ctx context.Context, filters database.ComputeFilters) ([]ranking.ComputeCandidate, error)
	SearchPackages(ctx context.Context, query string) ([]ranking.PackageCandidate, error)
}

// Metadata is attached to every search response so callers can see how the
// result set was produced.
type Metadata struct {
	TotalFound     int            `json:"total_found"`
	TopK           int            `json:"top_k"`
	Query          string         `json:"query,omitempty"`
	Filters        map[string]any `json:"filters,omitempty"`
	EmbeddingModel string         `json:"embedding_model,omitempty"`
	ChunkerVersion string         `json:"chunker_version,omitempty"`
}

type ModelResponse struct {
	Results  []ranking.ModelCandidate `json:"results"`
	Metadata Metadata                 `json:"metadata"`
}

type ComputeResponse struct {
	Results  []ranking.ComputeCandidate `json:"results"`
	Metadata Metadata                   `json:"metadata"`
}

type PackageResponse struct {
	Results  []ranking.PackageCandidate `json:"results"`
	Metadata Metadata                   `json:"metadata"`
}

// Service answers the three retrieval operations. Query embeddings go
// through a small LRU so repeated questions in one conversation do not
// re-hit the embedding service.
type Service struct {
	cfg      *config.Config
	store    Store
	embedder index.Embedder
	cache    *lru.Cache
	logger   *zap.Logger
}

func New(cfg *config.Config, store Store, embedder index.Embedder, logger *zap.Logger) (*Service, error) {
	cache, err := lru.New(embeddingCacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		cache:    cache,
		logger:   logger,
	}, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if cached, ok := s.cache.Get(query); ok {
		return cached.([]float32), nil
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.Add(query, vec)
	return vec, nil
}

// SearchModels embeds the query, retrieves the nearest chunks, aggregates
// the hits per card, expands the top cards to their models, and ranks the
// result. A query that matches nothing returns an empty result set, not an
// error.
func (s *Service) SearchModels(ctx context.Context, query string, filters database.ModelFilters) (*ModelResponse, error) {
	resp := &ModelResponse{
		Results: []ranking.ModelCandidate{},
		Metadata: Metadata{
			TopK:           s.cfg.ModelTopK,
			Query:          query,
			EmbeddingModel: s.cfg.EmbeddingModel,
			ChunkerVersion: s.cfg.ChunkerVersion,
		},
	}

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrEmbeddingService, err.Error())
	}

	hits, err := s.store.SearchChunks(ctx, vec, s.cfg.ChunkerVersion, s.cfg.EmbeddingModel, s.cfg.ChunkTopK)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}
	if len(hits) == 0 {
		s.logger.Debug("No chunk hits for query", zap.String("query", query))
		return resp, nil
	}

	cardScores := aggregateByCard(hits)
	hashes := topCardHashes(cardScores, s.cfg.CardTopM)

	models, err := s.store.SelectModelsByCardHashes(ctx, hashes, filters)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}
	if len(models) == 0 {
		return resp, nil
	}

	relevanceByID := make(map[string]float64, len(models))
	for _, m := range models {
		if score, ok := cardScores[m.CardHash]; ok {
			relevanceByID[m.ModelID] = score
		}
	}

	ranked := ranking.RankModels(models, relevanceByID)
	resp.Metadata.TotalFound = len(ranked)
	if len(ranked) > s.cfg.ModelTopK {
		ranked = ranked[:s.cfg.ModelTopK]
	}
	resp.Results = ranked
	return resp, nil
}

// SearchCompute applies the structured filters in SQL and ranks the
// survivors deterministically. No embedding involved.
func (s *Service) SearchCompute(ctx context.Context, filters database.ComputeFilters) (*ComputeResponse, error) {
	resp := &ComputeResponse{
		Results: []ranking.ComputeCandidate{},
		Metadata: Metadata{
			TopK:    s.cfg.ComputeTopK,
			Filters: filters.Applied(),
		},
	}

	instances, err := s.store.SearchInstances(ctx, filters)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}

	ranked := ranking.RankCompute(instances)
	resp.Metadata.TotalFound = len(ranked)
	if len(ranked) > s.cfg.ComputeTopK {
		ranked = ranked[:s.cfg.ComputeTopK]
	}
	resp.Results = ranked
	return resp, nil
}

// SearchPackages runs full-text search over the package catalog and ranks
// by name-match tier, then popularity.
func (s *Service) SearchPackages(ctx context.Context, query string) (*PackageResponse, error) {
	resp := &PackageResponse{
		Results: []ranking.PackageCandidate{},
		Metadata: Metadata{
			TopK:  s.cfg.PackageTopK,
			Query: query,
		},
	}

	packages, err := s.store.SearchPackages(ctx, query)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}

	ranked := ranking.RankPackages(packages, query)
	resp.Metadata.TotalFound = len(ranked)
	if len(ranked) > s.cfg.PackageTopK {
		ranked = ranked[:s.cfg.PackageTopK]
	}
	resp.Results = ranked
	return resp, nil
}

// aggregateByCard folds per-chunk similarities into one score per card:
// 0.7 * best chunk + 0.3 * mean over that card's hits.
func aggregateByCard(hits []database.ChunkSimilarity) map[string]float64 {
	type acc struct {
		max   float64
		sum   float64
		count int
	}
	byCard := make(map[string]*acc)
	for _, h := range hits {
		a, ok := byCard[h.CardHash]
		if !ok {
			// Cosine similarity spans [-1, 1], so the max must start from
			// the first hit rather than zero.
			a = &acc{max: h.Similarity}
			byCard[h.CardHash] = a
		}
		if h.Similarity > a.max {
			a.max = h.Similarity
		}
		a.sum += h.Similarity
		a.count++
	}

	scores := make(map[string]float64, len(byCard))
	for hash, a := range byCard {
		scores[hash] = maxWeight*a.max + meanWeight*(a.sum/float64(a.count))
	}
	return scores
}

// topCardHashes returns up to limit card hashes ordered by aggregated score
// descending, hash ascending on ties so the cut is deterministic.
func topCardHashes(scores map[string]float64, limit int) []string {
	hashes := make([]string, 0, len(scores))
	for hash := range scores {
		hashes = append(hashes, hash)
	}
	sort.Slice(hashes, func(i, j int) bool {
		if scores[hashes[i]] != scores[hashes[j]] {
			return scores[hashes[i]] > scores[hashes[j]]
		}
		return hashes[i] < hashes[j]
	})
	if len(hashes) > limit {
		hashes = hashes[:limit]
	}
	return hashes
}
