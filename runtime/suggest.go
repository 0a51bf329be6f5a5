package runtime

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// closestName returns the candidate most likely meant by name, or "".
// Subsequence matches rank first; otherwise a small edit distance wins.
func closestName(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
