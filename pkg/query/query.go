package query

import (
	"context"
	"slices"

	"github.com/matst80/slask-gallery/pkg/types"
)

// Predicate restricts one facet. A single value is an equality check, more
// than one value is a "value in set" check.
type Predicate struct {
	Facet  types.FacetKey `json:"facet"`
	Values []string       `json:"values"`
}

func (p Predicate) IsEquality() bool {
	return len(p.Values) == 1
}

// Query is a conjunction of base constraints and facet predicates. Base
// constraints scope every result and are never replaced or removed; facet
// predicates are kept in catalog order, at most one per facet.
type Query struct {
	constraints []Predicate
	predicates  []Predicate
	visibleOnly bool
}

func NewQuery(predicates ...Predicate) Query {
	q := Query{}
	for _, p := range predicates {
		q = q.With(p)
	}
	return q
}

func clonePredicates(predicates []Predicate) []Predicate {
	ret := make([]Predicate, len(predicates))
	for i, p := range predicates {
		ret[i] = Predicate{Facet: p.Facet, Values: slices.Clone(p.Values)}
	}
	return ret
}

// Predicates returns a copy of the facet predicates in facet order.
func (q Query) Predicates() []Predicate {
	return clonePredicates(q.predicates)
}

// Constraints returns a copy of the base constraints.
func (q Query) Constraints() []Predicate {
	return clonePredicates(q.constraints)
}

// All returns every predicate a store has to satisfy, base constraints
// first. The same facet may appear more than once; all of them apply.
func (q Query) All() []Predicate {
	return append(clonePredicates(q.constraints), clonePredicates(q.predicates)...)
}

func (q Query) Len() int {
	return len(q.predicates)
}

func (q Query) IsEmpty() bool {
	return len(q.predicates) == 0 && len(q.constraints) == 0 && !q.visibleOnly
}

func (q Query) IsVisibleOnly() bool {
	return q.visibleOnly
}

// Has reports whether a facet predicate exists for key. Base constraints
// are not considered.
func (q Query) Has(key types.FacetKey) bool {
	return slices.ContainsFunc(q.predicates, func(p Predicate) bool {
		return p.Facet == key
	})
}

func (q Query) clone() Query {
	return Query{
		constraints: clonePredicates(q.constraints),
		predicates:  clonePredicates(q.predicates),
		visibleOnly: q.visibleOnly,
	}
}

// With returns a copy with the predicate added, replacing any facet
// predicate already present for the same facet. Empty predicates are
// ignored.
func (q Query) With(p Predicate) Query {
	if len(p.Values) == 0 {
		return q
	}
	ret := q.Without(p.Facet)
	ret.predicates = append(ret.predicates, Predicate{Facet: p.Facet, Values: slices.Clone(p.Values)})
	slices.SortStableFunc(ret.predicates, func(a, b Predicate) int {
		return int(a.Facet) - int(b.Facet)
	})
	return ret
}

// Without returns a copy with the facet predicate removed. Base constraints
// on the same facet stay.
func (q Query) Without(key types.FacetKey) Query {
	ret := q.clone()
	ret.predicates = slices.DeleteFunc(ret.predicates, func(p Predicate) bool {
		return p.Facet == key
	})
	return ret
}

// Constrain returns a copy with p added to the base constraints. It is
// conjoined with everything else, including predicates on the same facet.
func (q Query) Constrain(p Predicate) Query {
	ret := q.clone()
	ret.constraints = append(ret.constraints, Predicate{Facet: p.Facet, Values: slices.Clone(p.Values)})
	return ret
}

// VisibleOnly returns a copy that excludes hidden photos.
func (q Query) VisibleOnly() Query {
	ret := q.clone()
	ret.visibleOnly = true
	return ret
}

// AsBase turns every facet predicate into a base constraint.
func (q Query) AsBase() Query {
	ret := q.clone()
	ret.constraints = append(ret.constraints, ret.predicates...)
	ret.predicates = nil
	return ret
}

func equalPredicates(a, b []Predicate) bool {
	return slices.EqualFunc(a, b, func(a, b Predicate) bool {
		return a.Facet == b.Facet && slices.Equal(a.Values, b.Values)
	})
}

func (q Query) Equal(other Query) bool {
	return q.visibleOnly == other.visibleOnly &&
		equalPredicates(q.constraints, other.constraints) &&
		equalPredicates(q.predicates, other.predicates)
}

// Page is applied after every predicate.
type Page struct {
	Offset int
	Limit  int
	Sort   string
}

func PageFromRequest(sr *types.SearchRequest) Page {
	return Page{
		Offset: sr.Offset(),
		Limit:  sr.PageSize,
		Sort:   sr.Sort,
	}
}

type ResultSet struct {
	Items     []types.Photo `json:"items"`
	TotalHits int           `json:"totalHits"`
}

// Store executes composed queries. Errors are returned as is, callers do not
// retry.
type Store interface {
	Find(ctx context.Context, q Query, page Page) (*ResultSet, error)
	Count(ctx context.Context, q Query) (int, error)
	GroupCount(ctx context.Context, q Query, key types.FacetKey) (map[string]int, error)
}
