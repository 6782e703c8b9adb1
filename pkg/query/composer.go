package query

import "github.com/matst80/slask-gallery/pkg/types"

// Compose conjoins one predicate per active facet onto the base query in
// catalog order. Everything in base becomes a constraint the selection can
// narrow but never replace. An empty selection returns the base scope.
func Compose(sel types.Selection, base Query) Query {
	q := base.AsBase()
	for _, key := range sel.ActiveKeys() {
		q = q.With(Predicate{
			Facet:  key,
			Values: sel.Get(key),
		})
	}
	return q
}

// FromSelection composes the selection onto an empty base.
func FromSelection(sel types.Selection) Query {
	return Compose(sel, Query{})
}
