package pipeline

import (
	"fmt"
	"sort"

	"h1b-statistics/internal/model"
)

// TopK returns at most k entries of table ordered by count descending, ties
// broken by value ascending. Ratios are count / denominator.
func TopK(table model.FrequencyTable, k, denominator int) ([]model.RankedEntry, error) {
	if k < 0 {
		return nil, fmt.Errorf("top k must be >= 0, got %d", k)
	}
	if denominator <= 0 {
		return nil, ErrZeroDenominator
	}

	entries := make([]model.RankedEntry, 0, len(table))
	for value, count := range table {
		entries = append(entries, model.RankedEntry{Value: value, Count: count})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})

	entries = entries[:min(k, len(entries))]
	for i := range entries {
		entries[i].Ratio = float64(entries[i].Count) / float64(denominator)
	}
	return entries, nil
}
