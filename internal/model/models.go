package model

// Record is one input row keyed by header name
type Record map[string]string

// FrequencyTable maps a categorical value to the number of filtered-in rows carrying it
type FrequencyTable map[string]int

// Sum returns the total of all counts in the table.
func (t FrequencyTable) Sum() int {
	sum := 0
	for _, c := range t {
		sum += c
	}
	return sum
}

// Tally is the result of a single pass over the input
type Tally struct {
	Tables   map[string]FrequencyTable `json:"tables"`
	Filtered int                       `json:"filtered_rows"` // rows matching the accepted status
	Total    int                       `json:"total_rows"`    // every data row examined
}

// RankedEntry is one row of a top-K result
type RankedEntry struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Ratio float64 `json:"ratio"` // Count / filtered rows
}

// RankedOutput is the ranked result for one counted field
type RankedOutput struct {
	Field       string        `json:"field"`
	ValueColumn string        `json:"value_column"`
	Path        string        `json:"path,omitempty"`
	Entries     []RankedEntry `json:"entries"`
}
