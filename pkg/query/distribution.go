package query

import (
	"context"

	"github.com/matst80/slask-gallery/pkg/types"
	"golang.org/x/sync/errgroup"
)

// ComputeDistribution counts the base query by sport and by category. The
// result is expensive on large stores and meant to sit behind a cache.
func ComputeDistribution(ctx context.Context, store Store, catalog types.Catalog, base Query) (types.Distribution, error) {
	ret := types.Distribution{}
	g, gctx := errgroup.WithContext(ctx)
	group := func(key types.FacetKey, out *[]types.ValueCount) {
		g.Go(func() error {
			f, ok := catalog.Get(key)
			if !ok {
				return nil
			}
			grouped, err := store.GroupCount(gctx, base, key)
			if err != nil {
				return err
			}
			*out = types.OrderedCounts(f, grouped)
			return nil
		})
	}
	group(types.FacetSport, &ret.Sports)
	group(types.FacetCategory, &ret.Categories)
	g.Go(func() error {
		total, err := store.Count(gctx, base)
		ret.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return types.Distribution{}, err
	}
	return ret, nil
}

func (e *Engine) Distribution(ctx context.Context) (types.Distribution, error) {
	return ComputeDistribution(ctx, e.Store, e.Catalog, e.Base)
}
