package index

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/types"
)

var ErrNotFound = types.ErrNotFound

// Index is an in memory photo store. Every catalog facet gets a KeyField and
// queries are answered by intersecting id sets.
type Index struct {
	mu     sync.RWMutex
	Fields map[types.FacetKey]*KeyField
	Items   map[uuid.UUID]*types.Photo
	All     types.ItemList
	Visible types.ItemList
}

func NewIndex(catalog types.Catalog) *Index {
	idx := &Index{
		Fields: make(map[types.FacetKey]*KeyField, len(catalog)),
		Items:   make(map[uuid.UUID]*types.Photo),
		All:     types.ItemList{},
		Visible: types.ItemList{},
	}
	for _, f := range catalog {
		idx.Fields[f.Key] = EmptyKeyField(f)
	}
	return idx
}

func (i *Index) addItemValues(p *types.Photo) {
	for key, field := range i.Fields {
		field.AddValueLink(p.FacetValue(key), p.Id)
	}
}

func (i *Index) removeItemValues(p *types.Photo) {
	for key, field := range i.Fields {
		field.RemoveValueLink(p.FacetValue(key), p.Id)
	}
}

func (i *Index) upsertUnsafe(p types.Photo) {
	p.Normalize()
	if current, ok := i.Items[p.Id]; ok {
		i.removeItemValues(current)
	}
	i.Items[p.Id] = &p
	i.All.AddId(p.Id)
	if p.Hidden {
		delete(i.Visible, p.Id)
	} else {
		i.Visible.AddId(p.Id)
	}
	i.addItemValues(&p)
}

func (i *Index) Upsert(ctx context.Context, photos ...types.Photo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, p := range photos {
		i.upsertUnsafe(p)
	}
	return nil
}

func (i *Index) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	item, ok := i.Items[id]
	if !ok {
		return ErrNotFound
	}
	i.removeItemValues(item)
	delete(i.Items, id)
	delete(i.All, id)
	delete(i.Visible, id)
	return nil
}

func (i *Index) Get(ctx context.Context, id uuid.UUID) (*types.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	item, ok := i.Items[id]
	if !ok {
		return nil, ErrNotFound
	}
	ret := *item
	return &ret, nil
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.Items)
}

// match returns the ids satisfying every constraint and predicate, nil when
// the query does not restrict anything. Callers hold the read lock.
func (i *Index) match(q query.Query) types.ItemList {
	predicates := q.All()
	lists := make([]types.ItemList, 0, len(predicates)+1)
	if q.IsVisibleOnly() {
		lists = append(lists, i.Visible)
	}
	for _, p := range predicates {
		field, ok := i.Fields[p.Facet]
		if !ok {
			log.Printf("no index field for facet %s", p.Facet)
			return types.ItemList{}
		}
		lists = append(lists, field.Match(p.Values))
	}
	return types.MakeIntersectResult(lists...)
}
