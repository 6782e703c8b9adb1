package types

import (
	"fmt"
	"strings"
)

// FacetKey identifies one filterable dimension. The numeric order is the
// catalog order and the order predicates are composed in.
type FacetKey uint8

const (
	FacetSport FacetKey = iota
	FacetCategory
	FacetPlayType
	FacetIntensity
	FacetLighting
	FacetColorTemperature
	FacetTimeOfDay
	FacetComposition
)

var facetParams = [...]string{
	FacetSport:            "sport",
	FacetCategory:         "category",
	FacetPlayType:         "play_type",
	FacetIntensity:        "intensity",
	FacetLighting:         "lighting",
	FacetColorTemperature: "color_temp",
	FacetTimeOfDay:        "time_of_day",
	FacetComposition:      "composition",
}

// Param is the url query parameter name for the facet.
func (k FacetKey) Param() string {
	if int(k) < len(facetParams) {
		return facetParams[k]
	}
	return fmt.Sprintf("facet_%d", k)
}

func (k FacetKey) String() string {
	return k.Param()
}

func (k FacetKey) MarshalText() ([]byte, error) {
	if int(k) >= len(facetParams) {
		return nil, fmt.Errorf("unknown facet %d", k)
	}
	return []byte(k.Param()), nil
}

func (k *FacetKey) UnmarshalText(text []byte) error {
	key, ok := FacetKeyFromParam(string(text))
	if !ok {
		return fmt.Errorf("unknown facet %q", string(text))
	}
	*k = key
	return nil
}

func FacetKeyFromParam(param string) (FacetKey, bool) {
	for i, p := range facetParams {
		if p == param {
			return FacetKey(i), true
		}
	}
	return 0, false
}

type Cardinality string

const (
	Single Cardinality = "single"
	Multi  Cardinality = "multi"
)

type Facet struct {
	Key         FacetKey    `json:"key"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Column      string      `json:"-"`
	Cardinality Cardinality `json:"cardinality"`
	Values      []string    `json:"values"`
	allowed     map[string]int
}

func NewFacet(key FacetKey, name, column string, cardinality Cardinality, values ...string) *Facet {
	f := &Facet{
		Key:         key,
		Name:        name,
		Column:      column,
		Cardinality: cardinality,
		Values:      values,
		allowed:     make(map[string]int, len(values)),
	}
	for i, v := range values {
		f.allowed[v] = i
	}
	return f
}

func (f *Facet) IsMulti() bool {
	return f.Cardinality == Multi
}

// Allows reports whether the normalized value is one of the allowed values.
func (f *Facet) Allows(value string) bool {
	_, ok := f.allowed[value]
	return ok
}

// position returns the catalog position of a value, used to keep multi
// selections in a stable order.
func (f *Facet) position(value string) int {
	if p, ok := f.allowed[value]; ok {
		return p
	}
	return len(f.Values)
}

func NormalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Catalog is the ordered, read only list of facets.
type Catalog []*Facet

func (c Catalog) Get(key FacetKey) (*Facet, bool) {
	for _, f := range c {
		if f.Key == key {
			return f, true
		}
	}
	return nil, false
}

func (c Catalog) Keys() []FacetKey {
	keys := make([]FacetKey, len(c))
	for i, f := range c {
		keys[i] = f.Key
	}
	return keys
}

var DefaultCatalog = Catalog{
	NewFacet(FacetSport, "Sport", "sport", Single,
		"volleyball", "basketball", "soccer", "football", "baseball", "softball",
		"track", "swimming", "wrestling", "tennis", "lacrosse", "hockey", "golf", "cross-country"),
	NewFacet(FacetCategory, "Category", "category", Single,
		"action", "portrait", "team", "celebration", "candid", "warmup", "crowd", "venue", "detail"),
	NewFacet(FacetPlayType, "Play type", "play_type", Single,
		"serve", "pass", "set", "attack", "block", "dig", "shot", "dribble", "rebound",
		"tackle", "sprint", "jump", "pitch", "swing", "goal"),
	NewFacet(FacetIntensity, "Intensity", "intensity", Single,
		"low", "medium", "high", "peak"),
	NewFacet(FacetLighting, "Lighting", "lighting", Multi,
		"natural", "artificial", "backlit", "dramatic", "golden-hour", "low-light", "flash", "mixed"),
	NewFacet(FacetColorTemperature, "Color temperature", "color_temperature", Single,
		"warm", "neutral", "cool", "mixed"),
	NewFacet(FacetTimeOfDay, "Time of day", "time_of_day", Single,
		"morning", "midday", "afternoon", "golden-hour", "evening", "night"),
	NewFacet(FacetComposition, "Composition", "composition", Single,
		"rule-of-thirds", "centered", "symmetrical", "leading-lines", "close-up", "wide",
		"negative-space", "layered"),
}
