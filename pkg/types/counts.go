package types

import "time"

type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FilterCounts maps each facet to counts for every allowed value, in
// catalog value order.
type FilterCounts map[FacetKey][]ValueCount

// Count returns the count for one value, zero when the value is missing.
func (fc FilterCounts) Count(key FacetKey, value string) int {
	for _, vc := range fc[key] {
		if vc.Value == value {
			return vc.Count
		}
	}
	return 0
}

func (fc FilterCounts) Total(key FacetKey) int {
	total := 0
	for _, vc := range fc[key] {
		total += vc.Count
	}
	return total
}

// OrderedCounts lays grouped counts out over the facet's allowed values,
// unknown values are ignored and missing values count zero.
func OrderedCounts(f *Facet, grouped map[string]int) []ValueCount {
	ret := make([]ValueCount, len(f.Values))
	for i, v := range f.Values {
		ret[i] = ValueCount{Value: v, Count: grouped[v]}
	}
	return ret
}

// Distribution is the unfiltered sport and category spread shown on the
// landing page.
type Distribution struct {
	Sports     []ValueCount `json:"sports"`
	Categories []ValueCount `json:"categories"`
	Total      int          `json:"total"`
	ComputedAt time.Time    `json:"computedAt"`
}
