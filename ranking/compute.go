package ranking

import "sort"

// priceSentinel stands in for a missing (or zero) monthly price so priced
// instances always sort ahead of unpriced ones.
const priceSentinel = 999999.0

// ComputeCandidate is one cloud instance row, already filtered by the hard
// SQL constraints. Nullable source columns arrive as zero values.
type ComputeCandidate struct {
	ID           string   `json:"id"`
	Provider     string   `json:"provider"`
	Name         string   `json:"name"`
	InstanceType string   `json:"instance_type,omitempty"`
	VCPU         int      `json:"vcpu"`
	RAMGB        float64  `json:"ram_gb"`
	GPUCount     int      `json:"gpu_count"`
	GPUModel     string   `json:"gpu_model,omitempty"`
	VRAMGB       int      `json:"vram_gb"`
	PriceMonthly float64  `json:"price_monthly"`
	PriceHourly  float64  `json:"price_hourly"`
	Regions      []string `json:"regions,omitempty"`
	Description  string   `json:"description,omitempty"`
	Rank         int      `json:"rank"`
}

// RankCompute sorts instances by (monthly price ascending with a large
// sentinel for missing prices, GPU memory descending, GPU count descending,
// provider ascending, instance name ascending) and assigns dense 1-based
// ranks. Pure function: the input slice is not modified.
func RankCompute(instances []ComputeCandidate) []ComputeCandidate {
	ranked := make([]ComputeCandidate, len(instances))
	copy(ranked, instances)

	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := effectivePrice(ranked[i]), effectivePrice(ranked[j])
		if pi != pj {
			return pi < pj
		}
		if ranked[i].VRAMGB != ranked[j].VRAMGB {
			return ranked[i].VRAMGB > ranked[j].VRAMGB
		}
		if ranked[i].GPUCount != ranked[j].GPUCount {
			return ranked[i].GPUCount > ranked[j].GPUCount
		}
		if ranked[i].Provider != ranked[j].Provider {
			return ranked[i].Provider < ranked[j].Provider
		}
		return ranked[i].Name < ranked[j].Name
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func effectivePrice(c ComputeCandidate) float64 {
	if c.PriceMonthly <= 0 {
		return priceSentinel
	}
	return c.PriceMonthly
}
