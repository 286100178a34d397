package database

import (
	"context"
	"fmt"

	"github.com/Raj-Vaghela/AI-Architect/index"
)

// UpsertCanonicalMapping replaces the canonical groups and model-to-card
// mappings in one transaction. Canonicalization is a full recompute with
// upsert semantics, so a previously canonical model may legitimately lose
// its spot to a newer, more popular duplicate.
func (s *PostgresStore) UpsertCanonicalMapping(ctx context.Context, groups []index.CanonicalGroup, mappings []index.CardMapping) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin canonical mapping tx: %w", err)
	}
	defer tx.Rollback()

	const groupQuery = `
        INSERT INTO hf.card_canon (card_hash, canonical_model_id, duplicate_count)
        VALUES ($1, $2, $3)
        ON CONFLICT (card_hash) DO UPDATE SET
            canonical_model_id = EXCLUDED.canonical_model_id,
            duplicate_count = EXCLUDED.duplicate_count
    `
	for _, g := range groups {
		if _, err := tx.ExecContext(ctx, groupQuery, g.CardHash, g.CanonicalModelID, g.DuplicateCount); err != nil {
			return fmt.Errorf("failed to upsert canonical group %s: %w", g.CardHash, err)
		}
	}

	const mappingQuery = `
        INSERT INTO hf.model_to_card (model_id, card_hash)
        VALUES ($1, $2)
        ON CONFLICT (model_id) DO UPDATE SET card_hash = EXCLUDED.card_hash
    `
	for _, m := range mappings {
		if _, err := tx.ExecContext(ctx, mappingQuery, m.ModelID, m.CardHash); err != nil {
			return fmt.Errorf("failed to upsert card mapping %s: %w", m.ModelID, err)
		}
	}

	return tx.Commit()
}
