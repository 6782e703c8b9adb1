package index

import (
	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/types"
)

// KeyField maps every value of one facet to the photos carrying it.
type KeyField struct {
	*types.Facet
	Keys map[string]types.ItemList
}

func EmptyKeyField(f *types.Facet) *KeyField {
	return &KeyField{
		Facet: f,
		Keys:  map[string]types.ItemList{},
	}
}

func (f *KeyField) AddValueLink(value string, id uuid.UUID) bool {
	if value == "" {
		return false
	}
	if k, ok := f.Keys[value]; ok {
		k.AddId(id)
	} else {
		f.Keys[value] = types.ItemList{id: struct{}{}}
	}
	return true
}

func (f *KeyField) RemoveValueLink(value string, id uuid.UUID) {
	if k, ok := f.Keys[value]; ok {
		delete(k, id)
		if len(k) == 0 {
			delete(f.Keys, value)
		}
	}
}

// Match returns the union of the ids for all values.
func (f *KeyField) Match(values []string) types.ItemList {
	if len(values) == 1 {
		if ids, ok := f.Keys[values[0]]; ok {
			return ids
		}
		return types.ItemList{}
	}
	ret := types.ItemList{}
	for _, v := range values {
		if ids, ok := f.Keys[v]; ok {
			ret.Merge(ids)
		}
	}
	return ret
}

// Counts groups the ids by value. A nil list means no restriction.
func (f *KeyField) Counts(ids types.ItemList) map[string]int {
	r := make(map[string]int, len(f.Keys))
	for key, sourceIds := range f.Keys {
		count := len(sourceIds)
		if ids != nil {
			count = sourceIds.IntersectionLen(ids)
		}
		if count > 0 {
			r[key] = count
		}
	}
	return r
}

func (f *KeyField) UniqueCount() int {
	return len(f.Keys)
}
