package index

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matst80/slask-gallery/pkg/types"
)

// SortPhotos orders photos for a sort name, ties broken by id so pages are
// stable.
func SortPhotos(photos []types.Photo, sort string) {
	byId := func(a, b types.Photo) int {
		return strings.Compare(a.Id.String(), b.Id.String())
	}
	switch sort {
	case types.SortOldest:
		slices.SortFunc(photos, func(a, b types.Photo) int {
			return cmp.Or(a.TakenAt.Compare(b.TakenAt), byId(a, b))
		})
	case types.SortTitle:
		slices.SortFunc(photos, func(a, b types.Photo) int {
			return cmp.Or(strings.Compare(a.Title, b.Title), byId(a, b))
		})
	default:
		slices.SortFunc(photos, func(a, b types.Photo) int {
			return cmp.Or(b.TakenAt.Compare(a.TakenAt), byId(a, b))
		})
	}
}
