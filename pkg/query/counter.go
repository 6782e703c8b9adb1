package query

import (
	"context"
	"sync"

	"github.com/matst80/slask-gallery/pkg/types"
	"golang.org/x/sync/errgroup"
)

// CountFacets computes context aware counts: every facet is grouped under the
// base query plus the selection without that facet, so a facet's counts never
// reflect its own selection but always respect the base. Facets are counted
// concurrently and the first store error cancels the rest.
func CountFacets(ctx context.Context, store Store, catalog types.Catalog, sel types.Selection, base Query) (types.FilterCounts, error) {
	result := make(types.FilterCounts, len(catalog))
	mu := sync.Mutex{}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range catalog {
		g.Go(func() error {
			grouped, err := store.GroupCount(gctx, Compose(sel.Without(f.Key), base), f.Key)
			if err != nil {
				return err
			}
			counts := types.OrderedCounts(f, grouped)
			mu.Lock()
			result[f.Key] = counts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// Engine binds a store and catalog to the base query every request starts
// from.
type Engine struct {
	Store   Store
	Catalog types.Catalog
	Base    Query
}

func NewEngine(store Store, catalog types.Catalog) *Engine {
	return &Engine{
		Store:   store,
		Catalog: catalog,
	}
}

func (e *Engine) Counts(ctx context.Context, sel types.Selection) (types.FilterCounts, error) {
	return CountFacets(ctx, e.Store, e.Catalog, sel, e.Base)
}

// Search returns the page of photos matching the full selection together
// with the facet counts.
func (e *Engine) Search(ctx context.Context, sel types.Selection, page Page) (*ResultSet, types.FilterCounts, error) {
	var result *ResultSet
	var counts types.FilterCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result, err = e.Store.Find(gctx, Compose(sel, e.Base), page)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = CountFacets(gctx, e.Store, e.Catalog, sel, e.Base)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return result, counts, nil
}
