package types

import (
	"maps"

	"github.com/google/uuid"
)

type ItemList map[uuid.UUID]struct{}

func (i ItemList) AddId(id uuid.UUID) {
	i[id] = struct{}{}
}

func (i ItemList) Contains(id uuid.UUID) bool {
	_, ok := i[id]
	return ok
}

func (i ItemList) Len() int {
	return len(i)
}

func (a ItemList) Intersect(b ItemList) {
	for id := range a {
		if _, ok := b[id]; !ok {
			delete(a, id)
		}
	}
}

func (i ItemList) Merge(other ItemList) {
	maps.Copy(i, other)
}

func (i ItemList) Clone() ItemList {
	return maps.Clone(i)
}

// IntersectionLen counts shared ids without allocating, iterating the
// smaller list.
func (a ItemList) IntersectionLen(b ItemList) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	count := 0
	for id := range a {
		if _, ok := b[id]; ok {
			count++
		}
	}
	return count
}

// MakeIntersectResult intersects all lists, starting from the smallest one.
// No lists means no restriction and returns nil.
func MakeIntersectResult(lists ...ItemList) ItemList {
	if len(lists) == 0 {
		return nil
	}
	smallest := 0
	for i, l := range lists {
		if len(l) < len(lists[smallest]) {
			smallest = i
		}
	}
	result := lists[smallest].Clone()
	if result == nil {
		result = ItemList{}
	}
	for i, l := range lists {
		if i == smallest {
			continue
		}
		result.Intersect(l)
		if len(result) == 0 {
			break
		}
	}
	return result
}
