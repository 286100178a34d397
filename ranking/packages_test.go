package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankPackages(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		packages  []PackageCandidate
		wantNames []string
	}{
		{
			name:  "exact_match_beats_popular_partial",
			query: "mlflow",
			packages: []PackageCandidate{
				{Name: "mlflow-operator", Stars: 500},
				{Name: "mlflow", Stars: 10},
			},
			wantNames: []string{"mlflow", "mlflow-operator"},
		},
		{
			name:  "prefix_beats_substring",
			query: "redis",
			packages: []PackageCandidate{
				{Name: "super-redis", Stars: 100},
				{Name: "redis-cluster", Stars: 1},
			},
			wantNames: []string{"redis-cluster", "super-redis"},
		},
		{
			name:  "description_match_beats_no_match",
			query: "tracking",
			packages: []PackageCandidate{
				{Name: "zookeeper", Stars: 999},
				{Name: "mlflow", Description: "experiment tracking server", Stars: 5},
			},
			wantNames: []string{"mlflow", "zookeeper"},
		},
		{
			name:  "same_tier_sorted_by_stars_then_official",
			query: "postgres",
			packages: []PackageCandidate{
				{Name: "postgres-b", Stars: 50, Official: false},
				{Name: "postgres-a", Stars: 50, Official: true},
				{Name: "postgres-c", Stars: 80, Official: false},
			},
			wantNames: []string{"postgres-c", "postgres-a", "postgres-b"},
		},
		{
			name:  "empty_query_sorts_by_popularity",
			query: "",
			packages: []PackageCandidate{
				{Name: "b", Stars: 1},
				{Name: "a", Stars: 2},
			},
			wantNames: []string{"a", "b"},
		},
		{
			name:  "case_insensitive_matching",
			query: "MLflow",
			packages: []PackageCandidate{
				{Name: "other", Stars: 100},
				{Name: "MLFlow", Stars: 1},
			},
			wantNames: []string{"MLFlow", "other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := RankPackages(tt.packages, tt.query)
			require.Len(t, ranked, len(tt.wantNames))
			for i, want := range tt.wantNames {
				assert.Equal(t, want, ranked[i].Name)
				assert.Equal(t, i+1, ranked[i].Rank)
			}
		})
	}
}

func TestRankPackagesDoesNotMutateInput(t *testing.T) {
	packages := []PackageCandidate{
		{Name: "zeta", Stars: 1},
		{Name: "mlflow", Stars: 1},
	}
	_ = RankPackages(packages, "mlflow")
	assert.Equal(t, "zeta", packages[0].Name)
	assert.Zero(t, packages[0].Rank)
}

func TestMatchTier(t *testing.T) {
	tests := []struct {
		name string
		pkg  PackageCandidate
		want int
	}{
		{"exact", PackageCandidate{Name: "kafka"}, matchExact},
		{"prefix", PackageCandidate{Name: "kafka-operator"}, matchPrefix},
		{"name_substring", PackageCandidate{Name: "strimzi-kafka-operator"}, matchNameSubstr},
		{"description_substring", PackageCandidate{Name: "strimzi", Description: "runs kafka on kubernetes"}, matchDescSubstr},
		{"no_match", PackageCandidate{Name: "rabbitmq", Description: "message broker"}, matchNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchTier(tt.pkg, "kafka"))
		})
	}
}
