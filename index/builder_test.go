package index

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Raj-Vaghela/AI-Architect/config"
)

// memStore is an in-memory Store for pipeline tests. It applies the same
// derivation and exclusion semantics as the Postgres store, minus SQL.
type memStore struct {
	cards map[string]*memCard // model id -> card

	groups   []CanonicalGroup
	mappings []CardMapping

	chunks     []Chunk
	embeddings map[int64][]float32
}

type memCard struct {
	modelID    string
	cardText   string
	cardHash   string
	tokenCount int
	derived    bool
	excluded   bool
	downloads  int64
	likes      int64
}

func newMemStore() *memStore {
	return &memStore{
		cards:      make(map[string]*memCard),
		embeddings: make(map[int64][]float32),
	}
}

func (m *memStore) addCard(modelID, text string, downloads, likes int64) {
	m.cards[modelID] = &memCard{modelID: modelID, cardText: text, downloads: downloads, likes: likes}
}

func (m *memStore) SelectCardsMissingDerived(ctx context.Context, limit int) ([]CardSource, error) {
	var out []CardSource
	for _, c := range m.cards {
		if !c.derived {
			out = append(out, CardSource{ModelID: c.modelID, CardText: c.cardText})
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) SetCardDerived(ctx context.Context, modelID, cardHash string, tokenCount int) error {
	c := m.cards[modelID]
	c.cardHash = cardHash
	c.tokenCount = tokenCount
	c.derived = true
	return nil
}

func (m *memStore) ApplyExclusionRules(ctx context.Context) (ExclusionCounts, error) {
	var counts ExclusionCounts
	for _, c := range m.cards {
		if c.excluded || !c.derived {
			continue
		}
		switch {
		case c.cardText == "No model card found.":
			c.excluded = true
			counts.NoContent++
		case c.tokenCount < 50:
			c.excluded = true
			counts.TooShort++
		case c.tokenCount > LargeCardMaxTokens:
			c.excluded = true
			counts.TooLong++
		}
	}
	return counts, nil
}

func (m *memStore) SelectNonExcludedCards(ctx context.Context) ([]CardRecord, error) {
	var out []CardRecord
	for _, c := range m.cards {
		if c.derived && !c.excluded {
			out = append(out, CardRecord{
				ModelID:   c.modelID,
				CardHash:  c.cardHash,
				Downloads: c.downloads,
				Likes:     c.likes,
			})
		}
	}
	return out, nil
}

func (m *memStore) UpsertCanonicalMapping(ctx context.Context, groups []CanonicalGroup, mappings []CardMapping) error {
	m.groups = groups
	m.mappings = mappings
	return nil
}

func (m *memStore) SelectCanonicalCards(ctx context.Context, limit int) ([]CanonicalCard, error) {
	var out []CanonicalCard
	for _, g := range m.groups {
		c := m.cards[g.CanonicalModelID]
		out = append(out, CanonicalCard{
			CardHash:         c.cardHash,
			CanonicalModelID: c.modelID,
			CardText:         NormalizeText(c.cardText),
			TokenCount:       c.tokenCount,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) InsertChunks(ctx context.Context, chunkerVersion, embeddingModel string, chunks []Chunk) (int64, error) {
	var inserted int64
	for _, ch := range chunks {
		dup := false
		for _, existing := range m.chunks {
			if existing.ChunkHash == ch.ChunkHash {
				dup = true
				break
			}
		}
		if !dup {
			m.chunks = append(m.chunks, ch)
			inserted++
		}
	}
	return inserted, nil
}

func (m *memStore) SelectPendingChunks(ctx context.Context, chunkerVersion, embeddingModel string) ([]PendingChunk, error) {
	var out []PendingChunk
	for i, ch := range m.chunks {
		id := int64(i + 1)
		if _, ok := m.embeddings[id]; !ok {
			out = append(out, PendingChunk{ID: id, ChunkText: ch.Text, TokenCount: ch.TokenCount})
		}
	}
	return out, nil
}

func (m *memStore) SetChunkEmbedding(ctx context.Context, chunkID int64, embedding []float32) error {
	m.embeddings[chunkID] = embedding
	return nil
}

func (m *memStore) GetCorpusStats(ctx context.Context) (CorpusStats, error) {
	stats := CorpusStats{
		TotalModels:    int64(len(m.cards)),
		TotalCards:     int64(len(m.cards)),
		CanonicalCards: int64(len(m.groups)),
	}
	for _, c := range m.cards {
		if c.excluded {
			stats.ExcludedCards++
		}
	}
	return stats, nil
}

func (m *memStore) GetChunkStats(ctx context.Context, chunkerVersion, embeddingModel string) (ChunkStats, error) {
	return ChunkStats{
		TotalChunks:    int64(len(m.chunks)),
		EmbeddedChunks: int64(len(m.embeddings)),
		PendingChunks:  int64(len(m.chunks) - len(m.embeddings)),
	}, nil
}

type stubEmbedder struct {
	failTexts map[string]bool
	calls     int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.failTexts[text] {
		return nil, errors.New("embedding service unavailable")
	}
	return []float32{1, 2, 3}, nil
}

func testBuilderConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ChunkerVersion:      "hf_chunker_v1",
		EmbeddingModel:      "text-embedding-3-small",
		ChunkTargetTokens:   900,
		ChunkOverlapTokens:  120,
		SectionBudgetTokens: 12000,
		BatchSize:           100,
		ReportPath:          filepath.Join(t.TempDir(), "report.md"),
	}
}

func longCard(prefix string) string {
	var b []byte
	b = append(b, []byte("# "+prefix+"\n\n")...)
	for i := 0; i < 80; i++ {
		b = append(b, []byte("This card describes the model in enough detail to pass the minimum size filter. ")...)
	}
	return string(b)
}

func TestBuilderRun(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := newMemStore()

	shared := longCard("Shared")
	store.addCard("org/popular", shared, 1000, 50)
	store.addCard("org/clone", shared, 10, 1)
	store.addCard("org/solo", longCard("Solo"), 5, 5)
	store.addCard("org/empty", "No model card found.", 0, 0)
	store.addCard("org/tiny", "too small", 0, 0)

	embedder := &stubEmbedder{}
	builder := NewBuilder(testBuilderConfig(t), store, embedder, testTokenizer(t), logger)

	report, err := builder.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.CardsDerived)
	assert.Equal(t, int64(1), report.Exclusions.NoContent)
	assert.Equal(t, int64(1), report.Exclusions.TooShort)
	assert.Equal(t, int64(0), report.Exclusions.TooLong)

	// Two identical cards collapse into one canonical group; the more
	// popular model wins the group.
	require.Len(t, store.groups, 2)
	for _, g := range store.groups {
		if g.DuplicateCount == 2 {
			assert.Equal(t, "org/popular", g.CanonicalModelID)
		}
	}

	// Every chunk got an embedding and the report landed on disk.
	assert.NotEmpty(t, store.chunks)
	assert.Equal(t, len(store.chunks), len(store.embeddings))
	assert.Empty(t, report.Failures)
	assert.FileExists(t, builder.cfg.ReportPath)
}

func TestBuilderRunIsIdempotent(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := newMemStore()
	store.addCard("org/solo", longCard("Solo"), 1, 1)

	embedder := &stubEmbedder{}
	builder := NewBuilder(testBuilderConfig(t), store, embedder, testTokenizer(t), logger)

	_, err := builder.Run(context.Background())
	require.NoError(t, err)
	firstChunks := len(store.chunks)
	firstCalls := embedder.calls

	report, err := builder.Run(context.Background())
	require.NoError(t, err)

	// Second run finds no new work: no new chunks, no new embedding calls.
	assert.Equal(t, firstChunks, len(store.chunks))
	assert.Equal(t, firstCalls, embedder.calls)
	assert.Equal(t, int64(0), report.ChunksInserted)
	assert.Equal(t, 0, report.CardsDerived)
}

func TestBuilderEmbeddingFailureIsNotFatal(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := newMemStore()
	store.addCard("org/solo", longCard("Solo"), 1, 1)

	builder := NewBuilder(testBuilderConfig(t), store, &failingEmbedder{}, testTokenizer(t), logger)
	report, err := builder.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.Failures)
	assert.Equal(t, 0, report.ChunksEmbedded)
	assert.Equal(t, "embed", report.Failures[0].Step)

	// Failed chunks stay pending for the next run.
	pending, err := store.SelectPendingChunks(context.Background(), "hf_chunker_v1", "text-embedding-3-small")
	require.NoError(t, err)
	assert.Len(t, pending, len(store.chunks))
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding service unavailable")
}
