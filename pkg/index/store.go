package index

import (
	"context"
	"fmt"

	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/types"
)

func (i *Index) Find(ctx context.Context, q query.Query, page query.Page) (*query.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i.mu.RLock()
	ids := i.match(q)
	if ids == nil {
		ids = i.All
	}
	photos := make([]types.Photo, 0, len(ids))
	for id := range ids {
		if item, ok := i.Items[id]; ok {
			photos = append(photos, *item)
		}
	}
	i.mu.RUnlock()

	SortPhotos(photos, page.Sort)
	total := len(photos)
	start := min(max(page.Offset, 0), total)
	end := total
	if page.Limit > 0 {
		end = min(start+page.Limit, total)
	}
	return &query.ResultSet{
		Items:     photos[start:end],
		TotalHits: total,
	}, nil
}

func (i *Index) Count(ctx context.Context, q query.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	ids := i.match(q)
	if ids == nil {
		return len(i.All), nil
	}
	return len(ids), nil
}

func (i *Index) GroupCount(ctx context.Context, q query.Query, key types.FacetKey) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	field, ok := i.Fields[key]
	if !ok {
		return nil, fmt.Errorf("no index field for facet %s", key)
	}
	return field.Counts(i.match(q)), nil
}
