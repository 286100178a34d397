package index

import "sort"

// CardRecord is one non-excluded model card as seen by the canonicalizer.
// Popularity fields default to zero when the source row has nulls.
type CardRecord struct {
	ModelID   string
	CardHash  string
	Downloads int64
	Likes     int64
}

// CanonicalGroup is the chosen representative for one distinct card hash.
type CanonicalGroup struct {
	CardHash         string
	CanonicalModelID string
	DuplicateCount   int
}

// CardMapping maps one model id to the hash of its (possibly shared) card.
type CardMapping struct {
	ModelID  string
	CardHash string
}

// SelectCanonical groups records by card hash and picks one canonical model
// per hash using a fixed tie-break order: downloads descending, likes
// descending, model id ascending. The result is a deterministic total order,
// so repeated runs over the same input always pick the same canonicals.
//
// Groups are returned sorted by card hash and mappings sorted by model id,
// keeping upsert order stable across runs.
func SelectCanonical(records []CardRecord) ([]CanonicalGroup, []CardMapping) {
	if len(records) == 0 {
		return nil, nil
	}

	byHash := make(map[string][]CardRecord)
	for _, rec := range records {
		byHash[rec.CardHash] = append(byHash[rec.CardHash], rec)
	}

	groups := make([]CanonicalGroup, 0, len(byHash))
	mappings := make([]CardMapping, 0, len(records))

	for hash, group := range byHash {
		sort.Slice(group, func(i, j int) bool {
			if group[i].Downloads != group[j].Downloads {
				return group[i].Downloads > group[j].Downloads
			}
			if group[i].Likes != group[j].Likes {
				return group[i].Likes > group[j].Likes
			}
			return group[i].ModelID < group[j].ModelID
		})

		groups = append(groups, CanonicalGroup{
			CardHash:         hash,
			CanonicalModelID: group[0].ModelID,
			DuplicateCount:   len(group),
		})
		for _, rec := range group {
			mappings = append(mappings, CardMapping{ModelID: rec.ModelID, CardHash: hash})
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CardHash < groups[j].CardHash
	})
	sort.Slice(mappings, func(i, j int) bool {
		return mappings[i].ModelID < mappings[j].ModelID
	})

	return groups, mappings
}
