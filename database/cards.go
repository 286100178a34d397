package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Raj-Vaghela/AI-Architect/index"
)

// noCardSentinel is the literal stored by the fetcher when a model has no
// card. Rule 1 of the exclusion filter keys off the exact string.
const noCardSentinel = "No model card found."

// InsertModelCard stores a fetched card. Re-fetching a model that already
// has a card is a no-op: source documents are immutable once stored.
func (s *PostgresStore) InsertModelCard(ctx context.Context, modelID, cardText string) error {
	const query = `
        INSERT INTO hf.model_cards (model_id, card_text, fetched_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (model_id) DO NOTHING
    `
	if _, err := s.DB.ExecContext(ctx, query, modelID, cardText); err != nil {
		return fmt.Errorf("failed to insert model card %s: %w", modelID, err)
	}
	return nil
}

// SelectCardsMissingDerived returns cards that have no token count or hash
// yet. These get normalized, hashed, and counted on the first pipeline pass.
func (s *PostgresStore) SelectCardsMissingDerived(ctx context.Context, limit int) ([]index.CardSource, error) {
	query := `
        SELECT model_id, card_text
        FROM hf.model_cards
        WHERE token_count IS NULL OR card_hash IS NULL
        ORDER BY model_id
    `
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select cards missing derived fields: %w", err)
	}
	defer rows.Close()

	var cards []index.CardSource
	for rows.Next() {
		var c index.CardSource
		if err := rows.Scan(&c.ModelID, &c.CardText); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// SetCardDerived persists the normalized hash and token count for one card.
func (s *PostgresStore) SetCardDerived(ctx context.Context, modelID, cardHash string, tokenCount int) error {
	const query = `
        UPDATE hf.model_cards
        SET card_hash = $2, token_count = $3
        WHERE model_id = $1
    `
	if _, err := s.DB.ExecContext(ctx, query, modelID, cardHash, tokenCount); err != nil {
		return fmt.Errorf("failed to set derived fields for card %s: %w", modelID, err)
	}
	return nil
}

// ApplyExclusionRules marks unfit cards with a recorded reason. Each rule
// only touches cards not already excluded, so exclusion is monotonic and the
// per-rule counts never double-count across repeated runs.
func (s *PostgresStore) ApplyExclusionRules(ctx context.Context) (index.ExclusionCounts, error) {
	var counts index.ExclusionCounts

	rules := []struct {
		where  string
		reason string
		args   []any
		count  *int64
	}{
		{
			where:  `card_text = $2`,
			reason: "No content",
			args:   []any{noCardSentinel},
			count:  &counts.NoContent,
		},
		{
			where:  `token_count < 50`,
			reason: "Too short (<50 tokens)",
			count:  &counts.TooShort,
		},
		{
			where:  `token_count > 100000`,
			reason: "Too long (>100k tokens, likely non-textual)",
			count:  &counts.TooLong,
		},
	}

	for _, rule := range rules {
		query := fmt.Sprintf(`
            UPDATE hf.model_cards
            SET excluded_from_rag = TRUE, exclusion_reason = $1
            WHERE %s AND excluded_from_rag = FALSE
        `, rule.where)

		args := append([]any{rule.reason}, rule.args...)
		res, err := s.DB.ExecContext(ctx, query, args...)
		if err != nil {
			return counts, fmt.Errorf("failed to apply exclusion rule %q: %w", rule.reason, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return counts, err
		}
		*rule.count = affected
	}

	return counts, nil
}

// SelectNonExcludedCards returns every card eligible for canonicalization
// with its popularity metrics, nulls coalesced to zero.
func (s *PostgresStore) SelectNonExcludedCards(ctx context.Context) ([]index.CardRecord, error) {
	const query = `
        SELECT
            mc.model_id,
            mc.card_hash,
            COALESCE(m.downloads, 0),
            COALESCE(m.likes, 0)
        FROM hf.model_cards mc
        LEFT JOIN hf.models m ON mc.model_id = m.model_id
        WHERE mc.excluded_from_rag = FALSE AND mc.card_hash IS NOT NULL
        ORDER BY mc.model_id
    `
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select non-excluded cards: %w", err)
	}
	defer rows.Close()

	var records []index.CardRecord
	for rows.Next() {
		var rec index.CardRecord
		if err := rows.Scan(&rec.ModelID, &rec.CardHash, &rec.Downloads, &rec.Likes); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SelectCanonicalCards returns canonical cards in hash order. limit 0 means
// no limit.
func (s *PostgresStore) SelectCanonicalCards(ctx context.Context, limit int) ([]index.CanonicalCard, error) {
	query := `
        SELECT cc.card_hash, cc.canonical_model_id, mc.card_text, COALESCE(mc.token_count, 0)
        FROM hf.card_canon cc
        JOIN hf.model_cards mc ON cc.canonical_model_id = mc.model_id
        ORDER BY cc.card_hash
    `
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select canonical cards: %w", err)
	}
	defer rows.Close()

	var cards []index.CanonicalCard
	for rows.Next() {
		var c index.CanonicalCard
		if err := rows.Scan(&c.CardHash, &c.CanonicalModelID, &c.CardText, &c.TokenCount); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *PostgresStore) GetCorpusStats(ctx context.Context) (index.CorpusStats, error) {
	var stats index.CorpusStats
	queries := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM hf.models`, &stats.TotalModels},
		{`SELECT COUNT(*) FROM hf.model_cards`, &stats.TotalCards},
		{`SELECT COUNT(*) FROM hf.model_cards WHERE excluded_from_rag`, &stats.ExcludedCards},
		{`SELECT COUNT(*) FROM hf.card_canon`, &stats.CanonicalCards},
	}
	for _, q := range queries {
		if err := s.DB.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil && err != sql.ErrNoRows {
			return stats, fmt.Errorf("failed to collect corpus stats: %w", err)
		}
	}
	return stats, nil
}
