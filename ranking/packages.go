package ranking

import (
	"sort"
	"strings"
)

// Match tiers for package name/description matching. Discrete values keep
// the tier comparison readable in logs and tests.
const (
	matchExact      = 1000
	matchPrefix     = 900
	matchNameSubstr = 800
	matchDescSubstr = 700
	matchNone       = 0
)

// PackageCandidate is one Kubernetes package row from the catalog search.
type PackageCandidate struct {
	PackageID      string   `json:"package_id"`
	Name           string   `json:"name"`
	NormalizedName string   `json:"normalized_name,omitempty"`
	Description    string   `json:"description,omitempty"`
	Version        string   `json:"version,omitempty"`
	AppVersion     string   `json:"app_version,omitempty"`
	Category       string   `json:"category,omitempty"`
	Official       bool     `json:"official"`
	CNCF           bool     `json:"cncf"`
	Deprecated     bool     `json:"deprecated"`
	Stars          int64    `json:"stars"`
	License        string   `json:"license,omitempty"`
	RepositoryName string   `json:"repository_name,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Subscriptions  int64    `json:"subscriptions"`
	Rank           int      `json:"rank"`
}

// RankPackages sorts packages by (query match tier descending, stars
// descending, official first, name ascending) and assigns dense 1-based
// ranks. An exact name match always beats a more popular partial match.
// Pure function: the input slice is not modified.
func RankPackages(packages []PackageCandidate, query string) []PackageCandidate {
	queryLower := strings.ToLower(strings.TrimSpace(query))

	type scored struct {
		pkg  PackageCandidate
		tier int
	}
	entries := make([]scored, len(packages))
	for i, pkg := range packages {
		entries[i] = scored{pkg: pkg, tier: matchTier(pkg, queryLower)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].tier != entries[j].tier {
			return entries[i].tier > entries[j].tier
		}
		if entries[i].pkg.Stars != entries[j].pkg.Stars {
			return entries[i].pkg.Stars > entries[j].pkg.Stars
		}
		if entries[i].pkg.Official != entries[j].pkg.Official {
			return entries[i].pkg.Official
		}
		return strings.ToLower(entries[i].pkg.Name) < strings.ToLower(entries[j].pkg.Name)
	})

	ranked := make([]PackageCandidate, len(entries))
	for i, e := range entries {
		ranked[i] = e.pkg
		ranked[i].Rank = i + 1
	}
	return ranked
}

func matchTier(pkg PackageCandidate, queryLower string) int {
	nameLower := strings.ToLower(pkg.Name)
	descLower := strings.ToLower(pkg.Description)

	switch {
	case queryLower == "":
		return matchNone
	case nameLower == queryLower:
		return matchExact
	case strings.HasPrefix(nameLower, queryLower):
		return matchPrefix
	case strings.Contains(nameLower, queryLower):
		return matchNameSubstr
	case strings.Contains(descLower, queryLower):
		return matchDescSubstr
	default:
		return matchNone
	}
}
