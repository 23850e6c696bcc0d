package overlay

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/lumenwm/lumen/internal/config"
)

// rank orders items against the query. Scoring is tiered: an exact
// prefix beats a contiguous substring, which beats a scattered
// subsequence. Scattered matches earn a small amount per matched rune
// plus a bonus for each consecutive pair, so tighter matches sort
// higher. The weights come from configuration.
func rank(items []Item, query string, w config.FuzzyWeights) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		results := make([]Result, len(items))
		for i, item := range items {
			results[i] = Result{Item: item, index: i}
		}
		sortResults(results)
		return results
	}

	names := make([]string, len(items))
	for i, item := range items {
		names[i] = strings.ToLower(item.Label)
	}

	var results []Result
	for i, name := range names {
		switch {
		case strings.HasPrefix(name, query):
			results = append(results, Result{Item: items[i], Score: w.PrefixBonus, index: i})
		case strings.Contains(name, query):
			results = append(results, Result{Item: items[i], Score: w.ContiguousBonus, index: i})
		}
	}

	// Remaining candidates need a subsequence match; fuzzy.Find gives us
	// the matched rune positions to weigh.
	remaining := make([]string, 0, len(names))
	remainingIdx := make([]int, 0, len(names))
	for i, name := range names {
		if !strings.HasPrefix(name, query) && !strings.Contains(name, query) {
			remaining = append(remaining, name)
			remainingIdx = append(remainingIdx, i)
		}
	}
	for _, m := range fuzzy.Find(query, remaining) {
		score := len(m.MatchedIndexes) * w.ScatteredPerChar
		for j := 1; j < len(m.MatchedIndexes); j++ {
			if m.MatchedIndexes[j] == m.MatchedIndexes[j-1]+1 {
				score += w.ConsecutiveBonus
			}
		}
		results = append(results, Result{Item: items[remainingIdx[m.Index]], Score: score, index: remainingIdx[m.Index]})
	}

	sortResults(results)
	return results
}

// sortResults orders by score, then by position in the unfiltered list.
// fuzzy.Find reorders the scattered tier by its own metric, so the
// stable sort alone is not enough.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].index < results[j].index
	})
}
