package index

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Raj-Vaghela/AI-Architect/config"
	apperrors "github.com/Raj-Vaghela/AI-Architect/errors"
	"github.com/Raj-Vaghela/AI-Architect/tokenizer"
)

// Builder runs the index pipeline: derive card fingerprints, apply exclusion
// rules, pick canonical cards, chunk them, and embed the chunks. Every phase
// is idempotent, so re-running the builder after a crash or a new ingest only
// does the remaining work.
type Builder struct {
	cfg       *config.Config
	store     Store
	embedder  Embedder
	tok       *tokenizer.Adapter
	extractor *SectionExtractor
	chunker   *Chunker
	logger    *zap.Logger
}

func NewBuilder(cfg *config.Config, store Store, embedder Embedder, tok *tokenizer.Adapter, logger *zap.Logger) *Builder {
	return &Builder{
		cfg:       cfg,
		store:     store,
		embedder:  embedder,
		tok:       tok,
		extractor: NewSectionExtractor(tok, cfg.SectionBudgetTokens, logger),
		chunker:   NewChunker(tok, cfg.ChunkTargetTokens, cfg.ChunkOverlapTokens),
		logger:    logger,
	}
}

// Run executes the full pipeline and writes the build report. Embedding
// failures are recorded in the report rather than aborting: the failed
// chunks stay pending and the next run picks them up.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	report := NewReport(b.cfg.ChunkerVersion, b.cfg.EmbeddingModel)
	start := time.Now()

	if err := b.deriveCards(ctx, report); err != nil {
		return nil, err
	}
	if err := b.applyExclusions(ctx, report); err != nil {
		return nil, err
	}
	if err := b.canonicalize(ctx, report); err != nil {
		return nil, err
	}
	if err := b.chunkCanonicalCards(ctx, report); err != nil {
		return nil, err
	}
	if err := b.embedPending(ctx, report); err != nil {
		return nil, err
	}

	var err error
	if report.Corpus, err = b.store.GetCorpusStats(ctx); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}
	if report.Chunks, err = b.store.GetChunkStats(ctx, b.cfg.ChunkerVersion, b.cfg.EmbeddingModel); err != nil {
		return nil, apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}
	report.Duration = time.Since(start)

	if err := report.WriteFile(b.cfg.ReportPath); err != nil {
		b.logger.Warn("Could not write build report", zap.Error(err))
	} else {
		b.logger.Info("Build report written", zap.String("path", b.cfg.ReportPath))
	}
	return report, nil
}

// deriveCards fills in card_hash and token_count for cards that lack them.
// Normalization runs before hashing so that line-ending and whitespace noise
// never splits identical cards into different hashes.
func (b *Builder) deriveCards(ctx context.Context, report *Report) error {
	for {
		cards, err := b.store.SelectCardsMissingDerived(ctx, b.cfg.BatchSize)
		if err != nil {
			return apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
		}
		if len(cards) == 0 {
			break
		}
		for _, card := range cards {
			normalized := NormalizeText(card.CardText)
			hash := HashContent(normalized)
			count := b.tok.Count(normalized)
			if err := b.store.SetCardDerived(ctx, card.ModelID, hash, count); err != nil {
				return apperrors.WrapErrorf(apperrors.ErrDatabaseOperation,
					"derive card %s: %v", card.ModelID, err)
			}
			report.CardsDerived++
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	b.logger.Info("Card derivation complete", zap.Int("cards", report.CardsDerived))
	return nil
}

func (b *Builder) applyExclusions(ctx context.Context, report *Report) error {
	counts, err := b.store.ApplyExclusionRules(ctx)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}
	report.Exclusions = counts
	b.logger.Info("Exclusion rules applied",
		zap.Int64("no_content", counts.NoContent),
		zap.Int64("too_short", counts.TooShort),
		zap.Int64("too_long", counts.TooLong))
	return nil
}

// canonicalize groups surviving cards by hash and records one canonical
// model per group, so duplicate cards are chunked and embedded only once.
func (b *Builder) canonicalize(ctx context.Context, report *Report) error {
	records, err := b.store.SelectNonExcludedCards(ctx)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}
	groups, mappings := SelectCanonical(records)
	if err := b.store.UpsertCanonicalMapping(ctx, groups, mappings); err != nil {
		return apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}
	report.CanonGroups = len(groups)
	report.DuplicateCards = len(mappings) - len(groups)
	b.logger.Info("Canonical mapping updated",
		zap.Int("groups", len(groups)),
		zap.Int("cards", len(mappings)))
	return nil
}

func (b *Builder) chunkCanonicalCards(ctx context.Context, report *Report) error {
	cards, err := b.store.SelectCanonicalCards(ctx, b.cfg.MaxCanonDocs)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}

	var batch []Chunk
	for _, card := range cards {
		// Chunk boundaries must be computed over the same normalized text
		// the card hash was derived from.
		text := NormalizeText(card.CardText)
		count := card.TokenCount

		// Cards in the large band get squeezed through section extraction
		// first. Anything above the band was already excluded.
		if count >= LargeCardMinTokens && count <= LargeCardMaxTokens {
			res := b.extractor.Extract(text)
			text = res.Text
			count = b.tok.Count(text)
			report.LargeCards++
			if res.Fallback {
				report.FallbackCards++
			}
		}

		chunks := b.chunker.Chunk(text, card.CardHash, count)
		report.ChunksPerCard = append(report.ChunksPerCard, len(chunks))
		batch = append(batch, chunks...)

		if len(batch) >= b.cfg.BatchSize {
			if err := b.flushChunks(ctx, report, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if len(batch) > 0 {
		if err := b.flushChunks(ctx, report, batch); err != nil {
			return err
		}
	}
	b.logger.Info("Chunking complete",
		zap.Int("cards", len(cards)),
		zap.Int64("new_chunks", report.ChunksInserted))
	return nil
}

func (b *Builder) flushChunks(ctx context.Context, report *Report, chunks []Chunk) error {
	inserted, err := b.store.InsertChunks(ctx, b.cfg.ChunkerVersion, b.cfg.EmbeddingModel, chunks)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}
	report.ChunksInserted += inserted
	return nil
}

// embedPending embeds every chunk that does not have a vector yet. Each
// embedding commits individually, so an interrupted run loses at most the
// chunk in flight.
func (b *Builder) embedPending(ctx context.Context, report *Report) error {
	if b.embedder == nil {
		b.logger.Warn("No embedder configured, leaving chunks pending")
		return nil
	}
	pending, err := b.store.SelectPendingChunks(ctx, b.cfg.ChunkerVersion, b.cfg.EmbeddingModel)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrDatabaseOperation, err.Error())
	}
	if len(pending) == 0 {
		b.logger.Info("No pending chunks to embed")
		return nil
	}
	b.logger.Info("Embedding pending chunks", zap.Int("count", len(pending)))

	for i, chunk := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		vec, err := b.embedder.Embed(ctx, chunk.ChunkText)
		if err != nil {
			report.AddFailure(chunk.ID, "embed", err.Error())
			b.logger.Warn("Embedding failed, chunk stays pending",
				zap.Int64("chunk_id", chunk.ID), zap.Error(err))
			continue
		}
		if err := b.store.SetChunkEmbedding(ctx, chunk.ID, vec); err != nil {
			report.AddFailure(chunk.ID, "store", err.Error())
			b.logger.Warn("Could not store embedding",
				zap.Int64("chunk_id", chunk.ID), zap.Error(err))
			continue
		}
		report.ChunksEmbedded++

		if b.cfg.BatchSize > 0 && (i+1)%b.cfg.BatchSize == 0 {
			b.logger.Info("Embedding progress",
				zap.Int("done", i+1), zap.Int("total", len(pending)))
		}
		if b.cfg.EmbedRequestDelay > 0 && i < len(pending)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.cfg.EmbedRequestDelay):
			}
		}
	}

	if failed := len(report.Failures); failed > 0 {
		b.logger.Warn("Embedding finished with failures",
			zap.Int("embedded", report.ChunksEmbedded), zap.Int("failed", failed))
	}
	return nil
}
