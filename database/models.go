package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/Raj-Vaghela/AI-Architect/ranking"
	"github.com/lib/pq"
)

// ModelFilters are the optional hard filters applied during the metadata
// join of the model search.
type ModelFilters struct {
	PipelineTag   string   `json:"pipeline_tag,omitempty"`
	LicenseFilter []string `json:"license_filter,omitempty"`
}

// SelectModelsByCardHashes expands the retrieved card hashes to their mapped
// models via hf.model_to_card and attaches model metadata. Both optional
// filters reduce the join, nulls coalesce to zero.
func (s *PostgresStore) SelectModelsByCardHashes(ctx context.Context, cardHashes []string, filters ModelFilters) ([]ranking.ModelCandidate, error) {
	if len(cardHashes) == 0 {
		return nil, nil
	}

	var where []string
	args := []any{pq.Array(cardHashes)}

	if len(filters.LicenseFilter) > 0 {
		args = append(args, pq.Array(filters.LicenseFilter))
		where = append(where, fmt.Sprintf("m.license = ANY($%d)", len(args)))
	}
	if filters.PipelineTag != "" {
		args = append(args, filters.PipelineTag)
		where = append(where, fmt.Sprintf("m.pipeline_tag = $%d", len(args)))
	}

	filterClause := ""
	if len(where) > 0 {
		filterClause = " AND " + strings.Join(where, " AND ")
	}

	query := fmt.Sprintf(`
        SELECT
            m.model_id,
            COALESCE(m.license, ''),
            COALESCE(m.likes, 0),
            COALESCE(m.downloads, 0),
            COALESCE(m.pipeline_tag, ''),
            m.tags,
            mtc.card_hash
        FROM hf.model_to_card mtc
        JOIN hf.models m ON m.model_id = mtc.model_id
        WHERE mtc.card_hash = ANY($1)%s
        ORDER BY m.downloads DESC NULLS LAST
    `, filterClause)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select models by card hash: %w", err)
	}
	defer rows.Close()

	var candidates []ranking.ModelCandidate
	for rows.Next() {
		var c ranking.ModelCandidate
		if err := rows.Scan(
			&c.ModelID, &c.License, &c.Likes, &c.Downloads,
			&c.PipelineTag, pq.Array(&c.Tags), &c.CardHash,
		); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
