package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectCanonical(t *testing.T) {
	tests := []struct {
		name          string
		records       []CardRecord
		wantCanonical map[string]string // card hash -> canonical model id
	}{
		{
			name: "equal_downloads_likes_break_tie",
			records: []CardRecord{
				{ModelID: "org/a", CardHash: "h1", Downloads: 100, Likes: 10},
				{ModelID: "org/b", CardHash: "h1", Downloads: 100, Likes: 50},
				{ModelID: "org/c", CardHash: "h1", Downloads: 100, Likes: 20},
			},
			wantCanonical: map[string]string{"h1": "org/b"},
		},
		{
			name: "downloads_dominate_likes",
			records: []CardRecord{
				{ModelID: "org/a", CardHash: "h1", Downloads: 50, Likes: 999},
				{ModelID: "org/b", CardHash: "h1", Downloads: 200, Likes: 1},
			},
			wantCanonical: map[string]string{"h1": "org/b"},
		},
		{
			name: "full_tie_falls_back_to_model_id",
			records: []CardRecord{
				{ModelID: "org/zeta", CardHash: "h1", Downloads: 10, Likes: 10},
				{ModelID: "org/alpha", CardHash: "h1", Downloads: 10, Likes: 10},
			},
			wantCanonical: map[string]string{"h1": "org/alpha"},
		},
		{
			name: "distinct_hashes_each_get_a_group",
			records: []CardRecord{
				{ModelID: "org/a", CardHash: "h1", Downloads: 1},
				{ModelID: "org/b", CardHash: "h2", Downloads: 1},
			},
			wantCanonical: map[string]string{"h1": "org/a", "h2": "org/b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, mappings := SelectCanonical(tt.records)

			require.Len(t, groups, len(tt.wantCanonical))
			for _, g := range groups {
				assert.Equal(t, tt.wantCanonical[g.CardHash], g.CanonicalModelID)
			}
			// Every input record keeps a mapping even when its card is shared.
			assert.Len(t, mappings, len(tt.records))
		})
	}
}

func TestSelectCanonicalDeterministicOrder(t *testing.T) {
	records := []CardRecord{
		{ModelID: "org/c", CardHash: "h2", Downloads: 5},
		{ModelID: "org/a", CardHash: "h1", Downloads: 7},
		{ModelID: "org/b", CardHash: "h1", Downloads: 3},
	}

	groups1, mappings1 := SelectCanonical(records)
	groups2, mappings2 := SelectCanonical(records)
	assert.Equal(t, groups1, groups2)
	assert.Equal(t, mappings1, mappings2)

	// Groups sort by hash, mappings by model id.
	require.Len(t, groups1, 2)
	assert.Equal(t, "h1", groups1[0].CardHash)
	assert.Equal(t, 2, groups1[0].DuplicateCount)
	assert.Equal(t, "org/a", mappings1[0].ModelID)
}

func TestSelectCanonicalEmpty(t *testing.T) {
	groups, mappings := SelectCanonical(nil)
	assert.Nil(t, groups)
	assert.Nil(t, mappings)
}
