package database

import (
	"context"
	"fmt"

	"github.com/Raj-Vaghela/AI-Architect/ranking"
	"github.com/lib/pq"
)

// SearchPackages finds Kubernetes packages via Postgres full-text search on
// name and description, with an ILIKE fallback for partial matches FTS
// stemming would miss. Deprecated packages are excluded. The working set is
// capped before deterministic ranking.
func (s *PostgresStore) SearchPackages(ctx context.Context, query string) ([]ranking.PackageCandidate, error) {
	const searchQuery = `
        SELECT
            package_id,
            name,
            COALESCE(normalized_name, ''),
            COALESCE(description, ''),
            COALESCE(version, ''),
            COALESCE(app_version, ''),
            COALESCE(category, ''),
            COALESCE(official, false),
            COALESCE(cncf, false),
            COALESCE(deprecated, false),
            COALESCE(stars, 0),
            COALESCE(license, ''),
            COALESCE(repository_name, ''),
            keywords,
            COALESCE(stats_subscriptions, 0)
        FROM cloud.bitnami_packages
        WHERE
            (
                search_tsv @@ plainto_tsquery('english', $1)
                OR LOWER(name) LIKE LOWER($2)
                OR LOWER(description) LIKE LOWER($2)
            )
            AND (deprecated IS NULL OR deprecated = false)
        ORDER BY
            ts_rank(search_tsv, plainto_tsquery('english', $1)) DESC,
            stars DESC NULLS LAST,
            official DESC NULLS LAST
        LIMIT 50
    `

	rows, err := s.DB.QueryContext(ctx, searchQuery, query, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search packages: %w", err)
	}
	defer rows.Close()

	var candidates []ranking.PackageCandidate
	for rows.Next() {
		var c ranking.PackageCandidate
		if err := rows.Scan(
			&c.PackageID, &c.Name, &c.NormalizedName, &c.Description,
			&c.Version, &c.AppVersion, &c.Category,
			&c.Official, &c.CNCF, &c.Deprecated,
			&c.Stars, &c.License, &c.RepositoryName,
			pq.Array(&c.Keywords), &c.Subscriptions,
		); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
