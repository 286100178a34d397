package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Failure records one non-fatal problem hit during a build run. The pipeline
// keeps going; failures surface in the report instead of aborting.
type Failure struct {
	ChunkID int64
	Step    string
	Reason  string
}

// Report accumulates everything one build run wants to say about itself.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	ChunkerVersion string
	EmbeddingModel string

	CardsDerived   int
	Exclusions     ExclusionCounts
	CanonGroups    int
	DuplicateCards int
	LargeCards     int
	FallbackCards  int

	ChunksInserted int64
	ChunksEmbedded int
	ChunksPerCard  []int

	Corpus CorpusStats
	Chunks ChunkStats

	Failures []Failure
}

func NewReport(chunkerVersion, embeddingModel string) *Report {
	return &Report{
		RunID:          uuid.NewString(),
		StartedAt:      time.Now().UTC(),
		ChunkerVersion: chunkerVersion,
		EmbeddingModel: embeddingModel,
	}
}

func (r *Report) AddFailure(chunkID int64, step, reason string) {
	r.Failures = append(r.Failures, Failure{ChunkID: chunkID, Step: step, Reason: reason})
}

// chunkDistribution returns min, median, and max chunks per canonical card.
func (r *Report) chunkDistribution() (int, int, int) {
	if len(r.ChunksPerCard) == 0 {
		return 0, 0, 0
	}
	vals := make([]int, len(r.ChunksPerCard))
	copy(vals, r.ChunksPerCard)
	sort.Ints(vals)
	return vals[0], vals[len(vals)/2], vals[len(vals)-1]
}

// RenderMarkdown produces the human-readable build report.
func (r *Report) RenderMarkdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# RAG Index Build Report\n\n")
	fmt.Fprintf(&b, "- **Run ID:** `%s`\n", r.RunID)
	fmt.Fprintf(&b, "- **Started:** %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Duration:** %s\n", r.Duration.Round(time.Second))
	fmt.Fprintf(&b, "- **Chunker version:** `%s`\n", r.ChunkerVersion)
	fmt.Fprintf(&b, "- **Embedding model:** `%s`\n\n", r.EmbeddingModel)

	fmt.Fprintf(&b, "## Corpus\n\n")
	fmt.Fprintf(&b, "| Metric | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Models | %d |\n", r.Corpus.TotalModels)
	fmt.Fprintf(&b, "| Cards | %d |\n", r.Corpus.TotalCards)
	fmt.Fprintf(&b, "| Excluded cards | %d |\n", r.Corpus.ExcludedCards)
	fmt.Fprintf(&b, "| Canonical cards | %d |\n\n", r.Corpus.CanonicalCards)

	fmt.Fprintf(&b, "## Exclusions (this run)\n\n")
	fmt.Fprintf(&b, "| Rule | Newly excluded |\n|---|---|\n")
	fmt.Fprintf(&b, "| No card content | %d |\n", r.Exclusions.NoContent)
	fmt.Fprintf(&b, "| Too short | %d |\n", r.Exclusions.TooShort)
	fmt.Fprintf(&b, "| Too long | %d |\n", r.Exclusions.TooLong)
	fmt.Fprintf(&b, "| **Total** | **%d** |\n\n", r.Exclusions.Total())

	fmt.Fprintf(&b, "## Canonical mapping\n\n")
	fmt.Fprintf(&b, "- Canonical groups: %d\n", r.CanonGroups)
	fmt.Fprintf(&b, "- Duplicate cards folded: %d\n\n", r.DuplicateCards)

	fmt.Fprintf(&b, "## Chunking\n\n")
	minC, medC, maxC := r.chunkDistribution()
	fmt.Fprintf(&b, "- Cards derived this run: %d\n", r.CardsDerived)
	fmt.Fprintf(&b, "- Large cards (section-extracted): %d\n", r.LargeCards)
	fmt.Fprintf(&b, "- Truncation fallbacks: %d\n", r.FallbackCards)
	fmt.Fprintf(&b, "- New chunks inserted: %d\n", r.ChunksInserted)
	fmt.Fprintf(&b, "- Chunks per card (min / median / max): %d / %d / %d\n\n", minC, medC, maxC)

	fmt.Fprintf(&b, "## Embeddings\n\n")
	fmt.Fprintf(&b, "- Embedded this run: %d\n", r.ChunksEmbedded)
	fmt.Fprintf(&b, "- Total chunks: %d\n", r.Chunks.TotalChunks)
	fmt.Fprintf(&b, "- With embedding: %d\n", r.Chunks.EmbeddedChunks)
	fmt.Fprintf(&b, "- Pending: %d\n\n", r.Chunks.PendingChunks)

	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, "## Failures\n\n")
		fmt.Fprintf(&b, "| Chunk ID | Step | Reason |\n|---|---|---|\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "| %d | %s | %s |\n", f.ChunkID, f.Step, f.Reason)
		}
		fmt.Fprintf(&b, "\n")
	}

	return b.String()
}

// WriteFile renders the report and writes it to path, creating parent
// directories as needed.
func (r *Report) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(r.RenderMarkdown()), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
