package ranking

import (
	"math"
	"sort"
)

// Fixed weights for combining retrieval relevance with popularity. The 0.5
// default relevance for entities with no retrieval signal is a confirmed
// policy value, not a tunable.
const (
	relevanceWeight  = 0.6
	popularityWeight = 0.4
	defaultRelevance = 0.5
)

// ModelCandidate is one Hugging Face model row joined with its card hash.
type ModelCandidate struct {
	ModelID        string   `json:"model_id"`
	License        string   `json:"license,omitempty"`
	Likes          int64    `json:"likes"`
	Downloads      int64    `json:"downloads"`
	PipelineTag    string   `json:"pipeline_tag,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	CardHash       string   `json:"card_hash,omitempty"`
	RelevanceScore float64  `json:"relevance_score"`
	CombinedScore  float64  `json:"combined_score"`
	Rank           int      `json:"rank"`
}

// RankModels scores each model as 0.6*relevance + 0.4*normalized popularity,
// where popularity is log(downloads+1)+log(likes+1) normalized by the
// candidate-set maximum, then sorts descending by combined score with model
// id ascending as the tie-break. Relevance defaults to 0.5 for models absent
// from relevanceByID. Ordering uses the full-precision scores; the 4-decimal
// rounding applies only to the output fields.
// Pure function: the input slice is not modified.
func RankModels(models []ModelCandidate, relevanceByID map[string]float64) []ModelCandidate {
	type scoredModel struct {
		m         ModelCandidate
		relevance float64
		combined  float64
	}
	scored := make([]scoredModel, len(models))

	popularity := make([]float64, len(models))
	maxPopularity := 0.0
	for i, m := range models {
		popularity[i] = math.Log(float64(m.Downloads)+1) + math.Log(float64(m.Likes)+1)
		if popularity[i] > maxPopularity {
			maxPopularity = popularity[i]
		}
	}

	for i, m := range models {
		relevance, ok := relevanceByID[m.ModelID]
		if !ok {
			relevance = defaultRelevance
		}

		normPopularity := 0.0
		if maxPopularity > 0 {
			normPopularity = popularity[i] / maxPopularity
		}

		scored[i] = scoredModel{
			m:         m,
			relevance: relevance,
			combined:  relevanceWeight*relevance + popularityWeight*normPopularity,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].combined != scored[j].combined {
			return scored[i].combined > scored[j].combined
		}
		return scored[i].m.ModelID < scored[j].m.ModelID
	})

	ranked := make([]ModelCandidate, len(scored))
	for i, s := range scored {
		ranked[i] = s.m
		ranked[i].RelevanceScore = round4(s.relevance)
		ranked[i].CombinedScore = round4(s.combined)
		ranked[i].Rank = i + 1
	}
	return ranked
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
