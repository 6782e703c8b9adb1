package types

import (
	"maps"
	"net/url"
	"slices"

	"github.com/matst80/slask-gallery/pkg/common/jsoncompat"
)

// Selection holds the chosen value(s) per facet. It is never mutated after
// construction, every change returns a copy.
type Selection struct {
	catalog Catalog
	values  map[FacetKey][]string
}

func NewSelection(catalog Catalog) Selection {
	return Selection{
		catalog: catalog,
		values:  map[FacetKey][]string{},
	}
}

// ParseSelection reads every catalog facet from the query. Values outside a
// facet's allowed set are dropped; single facets keep the first valid value
// and a multi facet with nothing valid left is inactive.
func ParseSelection(catalog Catalog, query url.Values) Selection {
	s := NewSelection(catalog)
	for _, f := range catalog {
		if valid := sanitize(f, query[f.Key.Param()]); len(valid) > 0 {
			s.values[f.Key] = valid
		}
	}
	return s
}

func sanitize(f *Facet, input []string) []string {
	var result []string
	for _, raw := range input {
		v := NormalizeValue(raw)
		if !f.Allows(v) || slices.Contains(result, v) {
			continue
		}
		result = append(result, v)
		if !f.IsMulti() {
			return result
		}
	}
	slices.SortFunc(result, func(a, b string) int {
		return f.position(a) - f.position(b)
	})
	return result
}

func (s Selection) Catalog() Catalog {
	return s.catalog
}

// Get returns a copy of the selected values for the facet, nil when inactive.
func (s Selection) Get(key FacetKey) []string {
	return slices.Clone(s.values[key])
}

// Value returns the first selected value, the only one for single facets.
func (s Selection) Value(key FacetKey) (string, bool) {
	v, ok := s.values[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (s Selection) IsActive(key FacetKey) bool {
	return len(s.values[key]) > 0
}

func (s Selection) IsEmpty() bool {
	return len(s.values) == 0
}

// ActiveKeys returns the active facets in catalog order.
func (s Selection) ActiveKeys() []FacetKey {
	keys := make([]FacetKey, 0, len(s.values))
	for _, f := range s.catalog {
		if s.IsActive(f.Key) {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

func (s Selection) clone() Selection {
	values := make(map[FacetKey][]string, len(s.values))
	for k, v := range s.values {
		values[k] = slices.Clone(v)
	}
	return Selection{catalog: s.catalog, values: values}
}

// Set replaces the facet's values. Invalid values are dropped the same way
// ParseSelection drops them.
func (s Selection) Set(key FacetKey, values ...string) Selection {
	ret := s.clone()
	f, ok := s.catalog.Get(key)
	if !ok {
		return ret
	}
	if valid := sanitize(f, values); len(valid) > 0 {
		ret.values[key] = valid
	} else {
		delete(ret.values, key)
	}
	return ret
}

func (s Selection) Without(key FacetKey) Selection {
	ret := s.clone()
	delete(ret.values, key)
	return ret
}

// Toggle flips one value. For single facets picking the current value clears
// the facet and picking another replaces it; multi facets add or remove it.
func (s Selection) Toggle(key FacetKey, value string) Selection {
	f, ok := s.catalog.Get(key)
	v := NormalizeValue(value)
	if !ok || !f.Allows(v) {
		return s.clone()
	}
	current := s.values[key]
	if !f.IsMulti() {
		if len(current) > 0 && current[0] == v {
			return s.Without(key)
		}
		return s.Set(key, v)
	}
	if slices.Contains(current, v) {
		return s.Set(key, slices.DeleteFunc(slices.Clone(current), func(c string) bool {
			return c == v
		})...)
	}
	return s.Set(key, append(slices.Clone(current), v)...)
}

// Values serializes the selection back into query parameters, one entry per
// selected value.
func (s Selection) Values() url.Values {
	ret := url.Values{}
	for _, key := range s.ActiveKeys() {
		ret[key.Param()] = slices.Clone(s.values[key])
	}
	return ret
}

func (s Selection) Encode() string {
	return s.Values().Encode()
}

func (s Selection) Equal(other Selection) bool {
	return maps.EqualFunc(s.values, other.values, slices.Equal)
}

func (s Selection) MarshalJSON() ([]byte, error) {
	ret := make(map[string]any, len(s.values))
	for _, key := range s.ActiveKeys() {
		f, _ := s.catalog.Get(key)
		if f.IsMulti() {
			ret[key.Param()] = s.values[key]
		} else {
			ret[key.Param()] = s.values[key][0]
		}
	}
	return jsoncompat.Marshal(ret)
}
