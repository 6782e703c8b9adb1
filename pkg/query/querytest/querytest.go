// Package querytest checks query.Store implementations against a brute force
// evaluation over the raw photo list.
package querytest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/types"
)

// NewStore builds a store holding exactly the given photos.
type NewStore func(t *testing.T, photos []types.Photo) query.Store

var baseTime = time.Date(2024, 9, 1, 18, 0, 0, 0, time.UTC)

func photo(n int, sport, lighting string) types.Photo {
	return types.Photo{
		Id:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("photo-%d", n))),
		Title:    fmt.Sprintf("Photo %03d", n),
		Url:      fmt.Sprintf("https://img.example.com/%d.jpg", n),
		TakenAt:  baseTime.Add(time.Duration(n) * time.Minute),
		Sport:    sport,
		Lighting: lighting,
	}
}

// VolleyballScenario has 40 volleyball photos (25 natural, 10 backlit,
// 5 dramatic) and 12 basketball photos.
func VolleyballScenario() []types.Photo {
	photos := make([]types.Photo, 0, 52)
	n := 0
	add := func(count int, sport, lighting string) {
		for range count {
			photos = append(photos, photo(n, sport, lighting))
			n++
		}
	}
	add(25, "volleyball", "natural")
	add(10, "volleyball", "backlit")
	add(5, "volleyball", "dramatic")
	add(8, "basketball", "artificial")
	add(4, "basketball", "natural")
	return photos
}

// RandomPhotos assigns random catalog values, leaving some facets empty.
func RandomPhotos(seed uint64, count int) []types.Photo {
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	pick := func(key types.FacetKey) string {
		f, _ := types.DefaultCatalog.Get(key)
		// keep the value space small so selections overlap
		limit := min(len(f.Values), 4)
		i := rnd.IntN(limit + 1)
		if i == limit {
			return ""
		}
		return f.Values[i]
	}
	photos := make([]types.Photo, count)
	for i := range photos {
		p := photo(i, pick(types.FacetSport), pick(types.FacetLighting))
		p.Category = pick(types.FacetCategory)
		p.PlayType = pick(types.FacetPlayType)
		p.Intensity = pick(types.FacetIntensity)
		p.ColorTemperature = pick(types.FacetColorTemperature)
		p.TimeOfDay = pick(types.FacetTimeOfDay)
		p.Composition = pick(types.FacetComposition)
		photos[i] = p
	}
	return photos
}

// RandomSelection picks up to three facets with random values, sometimes
// several lighting values.
func RandomSelection(seed uint64) types.Selection {
	rnd := rand.New(rand.NewPCG(seed, seed+1))
	s := types.NewSelection(types.DefaultCatalog)
	for range rnd.IntN(4) {
		f := types.DefaultCatalog[rnd.IntN(len(types.DefaultCatalog))]
		limit := min(len(f.Values), 4)
		values := []string{f.Values[rnd.IntN(limit)]}
		if f.IsMulti() && rnd.IntN(2) == 0 {
			values = append(values, f.Values[rnd.IntN(limit)])
		}
		s = s.Set(f.Key, values...)
	}
	return s
}

func matchesAll(p types.Photo, sel types.Selection, skip types.FacetKey, useSkip bool) bool {
	for _, key := range sel.ActiveKeys() {
		if useSkip && key == skip {
			continue
		}
		if !slices.Contains(sel.Get(key), p.FacetValue(key)) {
			return false
		}
	}
	return true
}

// Matching is the brute force result set for a selection.
func Matching(photos []types.Photo, sel types.Selection) []types.Photo {
	var ret []types.Photo
	for _, p := range photos {
		if matchesAll(p, sel, 0, false) {
			ret = append(ret, p)
		}
	}
	return ret
}

// ExpectedCount is the brute force context aware count: the selection with
// the facet's own predicate removed, and the facet equal to value.
func ExpectedCount(photos []types.Photo, sel types.Selection, key types.FacetKey, value string) int {
	count := 0
	for _, p := range photos {
		if matchesAll(p, sel, key, true) && p.FacetValue(key) == value {
			count++
		}
	}
	return count
}

// MatchesBase evaluates a base query built from constraints and predicates
// directly against one photo.
func MatchesBase(p types.Photo, base query.Query) bool {
	if base.IsVisibleOnly() && p.Hidden {
		return false
	}
	for _, pred := range base.All() {
		if !slices.Contains(pred.Values, p.FacetValue(pred.Facet)) {
			return false
		}
	}
	return true
}

// MatchingIn is Matching restricted to photos inside the base scope.
func MatchingIn(photos []types.Photo, base query.Query, sel types.Selection) []types.Photo {
	var ret []types.Photo
	for _, p := range photos {
		if MatchesBase(p, base) && matchesAll(p, sel, 0, false) {
			ret = append(ret, p)
		}
	}
	return ret
}

// ExpectedCountIn is ExpectedCount restricted to photos inside the base
// scope. The base is never relaxed, only the facet's selection is.
func ExpectedCountIn(photos []types.Photo, base query.Query, sel types.Selection, key types.FacetKey, value string) int {
	count := 0
	for _, p := range photos {
		if MatchesBase(p, base) && matchesAll(p, sel, key, true) && p.FacetValue(key) == value {
			count++
		}
	}
	return count
}

// WithHidden appends hidden volleyball photos that a visible only base must
// never count.
func WithHidden(photos []types.Photo, count int) []types.Photo {
	ret := slices.Clone(photos)
	for n := range count {
		p := photo(1000+n, "volleyball", "natural")
		p.Hidden = true
		ret = append(ret, p)
	}
	return ret
}

func ids(photos []types.Photo) []uuid.UUID {
	ret := make([]uuid.UUID, len(photos))
	for i, p := range photos {
		ret[i] = p.Id
	}
	slices.SortFunc(ret, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return ret
}

// Run exercises the store contract.
func Run(t *testing.T, newStore NewStore) {
	ctx := context.Background()

	t.Run("VolleyballScenario", func(t *testing.T) {
		photos := VolleyballScenario()
		store := newStore(t, photos)
		sel := types.NewSelection(types.DefaultCatalog).
			Set(types.FacetSport, "volleyball").
			Set(types.FacetLighting, "natural", "backlit")

		res, err := store.Find(ctx, query.FromSelection(sel), query.Page{})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if res.TotalHits != 35 || len(res.Items) != 35 {
			t.Errorf("Expected 35 hits, got %d (%d items)", res.TotalHits, len(res.Items))
		}

		counts, err := query.CountFacets(ctx, store, types.DefaultCatalog, sel, query.Query{})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		for value, expected := range map[string]int{"natural": 25, "backlit": 10, "dramatic": 5, "artificial": 0} {
			if got := counts.Count(types.FacetLighting, value); got != expected {
				t.Errorf("Expected lighting %s to be %d, got %d", value, expected, got)
			}
		}
		if total := counts.Total(types.FacetLighting); total != 40 {
			t.Errorf("Expected lighting counts to total 40, got %d", total)
		}
		if got := counts.Count(types.FacetSport, "volleyball"); got != 35 {
			t.Errorf("Expected sport volleyball to be 35, got %d", got)
		}
		if got := counts.Count(types.FacetSport, "basketball"); got != 4 {
			t.Errorf("Expected sport basketball to be 4, got %d", got)
		}
	})

	t.Run("EmptySelectionIsBase", func(t *testing.T) {
		photos := VolleyballScenario()
		store := newStore(t, photos)
		empty := types.NewSelection(types.DefaultCatalog)
		if !query.FromSelection(empty).Equal(query.Query{}) {
			t.Errorf("Expected empty selection to compose to the base query")
		}
		n, err := store.Count(ctx, query.FromSelection(empty))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if n != len(photos) {
			t.Errorf("Expected %d, got %d", len(photos), n)
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		photos := VolleyballScenario()
		store := newStore(t, photos)
		q := query.NewQuery(query.Predicate{Facet: types.FacetSport, Values: []string{"volleyball"}})
		first, err := store.Find(ctx, q, query.Page{Offset: 0, Limit: 10, Sort: types.SortNewest})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		second, err := store.Find(ctx, q, query.Page{Offset: 10, Limit: 10, Sort: types.SortNewest})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if first.TotalHits != 40 || len(first.Items) != 10 || len(second.Items) != 10 {
			t.Fatalf("Expected 40 hits in pages of 10, got %d %d %d", first.TotalHits, len(first.Items), len(second.Items))
		}
		if !first.Items[9].TakenAt.After(second.Items[0].TakenAt) {
			t.Errorf("Expected newest first across pages")
		}
		oldest, _ := store.Find(ctx, q, query.Page{Limit: 1, Sort: types.SortOldest})
		if len(oldest.Items) != 1 || oldest.Items[0].Title != "Photo 000" {
			t.Errorf("Expected Photo 000 first when sorting oldest, got %v", oldest.Items)
		}
		past, _ := store.Find(ctx, q, query.Page{Offset: 100, Limit: 10})
		if len(past.Items) != 0 || past.TotalHits != 40 {
			t.Errorf("Expected no items past the end, got %d", len(past.Items))
		}
	})

	t.Run("ContextAwareCountsMatchBruteForce", func(t *testing.T) {
		photos := RandomPhotos(42, 300)
		store := newStore(t, photos)
		for seed := range uint64(40) {
			sel := RandomSelection(seed)
			counts, err := query.CountFacets(ctx, store, types.DefaultCatalog, sel, query.Query{})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			for _, f := range types.DefaultCatalog {
				if len(counts[f.Key]) != len(f.Values) {
					t.Errorf("Expected every value of %s to be reported, got %d", f.Key, len(counts[f.Key]))
				}
				for _, v := range f.Values {
					expected := ExpectedCount(photos, sel, f.Key, v)
					if got := counts.Count(f.Key, v); got != expected {
						t.Errorf("selection %q: expected %s=%s to be %d, got %d", sel.Encode(), f.Key, v, expected, got)
					}
				}
			}

			res, err := store.Find(ctx, query.FromSelection(sel), query.Page{})
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !slices.Equal(ids(res.Items), ids(Matching(photos, sel))) {
				t.Errorf("selection %q: expected %d matches, got %d", sel.Encode(), len(Matching(photos, sel)), res.TotalHits)
			}
		}
	})

	t.Run("ExclusiveFacetsReportZero", func(t *testing.T) {
		photos := VolleyballScenario()
		store := newStore(t, photos)
		sel := types.NewSelection(types.DefaultCatalog).
			Set(types.FacetSport, "basketball").
			Set(types.FacetLighting, "dramatic")
		counts, err := query.CountFacets(ctx, store, types.DefaultCatalog, sel, query.Query{})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if total := counts.Total(types.FacetCategory); total != 0 {
			t.Errorf("Expected all category counts to be zero, got %d", total)
		}
		if got := counts.Count(types.FacetSport, "volleyball"); got != 5 {
			t.Errorf("Expected volleyball to be 5 under dramatic lighting, got %d", got)
		}
	})

	t.Run("BaseQueryScopesResultsAndCounts", func(t *testing.T) {
		photos := WithHidden(VolleyballScenario(), 3)
		store := newStore(t, photos)
		engine := query.NewEngine(store, types.DefaultCatalog)
		engine.Base = query.Query{}.
			Constrain(query.Predicate{Facet: types.FacetSport, Values: []string{"volleyball"}}).
			VisibleOnly()

		empty := types.NewSelection(types.DefaultCatalog)
		res, counts, err := engine.Search(ctx, empty, query.Page{})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if res.TotalHits != 40 {
			t.Errorf("Expected 40 visible volleyball photos, got %d", res.TotalHits)
		}
		if got := counts.Count(types.FacetSport, "basketball"); got != 0 {
			t.Errorf("Expected basketball outside the base to count 0, got %d", got)
		}
		if got := counts.Count(types.FacetSport, "volleyball"); got != 40 {
			t.Errorf("Expected volleyball to count 40 without hidden photos, got %d", got)
		}

		escape := empty.Set(types.FacetSport, "basketball")
		res, counts, err = engine.Search(ctx, escape, query.Page{})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if res.TotalHits != 0 {
			t.Errorf("Expected selection to stay inside the base, got %d hits", res.TotalHits)
		}
		if got := counts.Count(types.FacetSport, "volleyball"); got != 40 {
			t.Errorf("Expected sport counts to drop only the selection, got volleyball %d", got)
		}
		if total := counts.Total(types.FacetLighting); total != 0 {
			t.Errorf("Expected lighting counts to respect base and selection, got %d", total)
		}

		backlit := empty.Set(types.FacetLighting, "backlit")
		_, counts, err = engine.Search(ctx, backlit, query.Page{})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got := counts.Count(types.FacetLighting, "natural"); got != 25 {
			t.Errorf("Expected natural to be 25, got %d", got)
		}
		if got := counts.Count(types.FacetSport, "basketball"); got != 0 {
			t.Errorf("Expected basketball to stay 0, got %d", got)
		}

		dist, err := engine.Distribution(ctx)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if dist.Total != 40 {
			t.Errorf("Expected distribution total 40, got %d", dist.Total)
		}
	})

	t.Run("BaseAwareCountsMatchBruteForce", func(t *testing.T) {
		photos := RandomPhotos(7, 300)
		for i := range photos {
			photos[i].Hidden = i%7 == 0
		}
		store := newStore(t, photos)
		sport, _ := types.DefaultCatalog.Get(types.FacetSport)
		bases := []query.Query{
			query.Query{}.VisibleOnly(),
			query.NewQuery(query.Predicate{Facet: types.FacetSport, Values: sport.Values[:2]}),
			query.Query{}.
				Constrain(query.Predicate{Facet: types.FacetSport, Values: sport.Values[:3]}).
				Constrain(query.Predicate{Facet: types.FacetSport, Values: sport.Values[1:4]}).
				VisibleOnly(),
		}
		for bi, base := range bases {
			for seed := range uint64(20) {
				sel := RandomSelection(seed)
				counts, err := query.CountFacets(ctx, store, types.DefaultCatalog, sel, base)
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				for _, f := range types.DefaultCatalog {
					for _, v := range f.Values {
						expected := ExpectedCountIn(photos, base, sel, f.Key, v)
						if got := counts.Count(f.Key, v); got != expected {
							t.Errorf("base %d selection %q: expected %s=%s to be %d, got %d", bi, sel.Encode(), f.Key, v, expected, got)
						}
					}
				}
				res, err := store.Find(ctx, query.Compose(sel, base), query.Page{})
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				if !slices.Equal(ids(res.Items), ids(MatchingIn(photos, base, sel))) {
					t.Errorf("base %d selection %q: expected %d matches, got %d", bi, sel.Encode(), len(MatchingIn(photos, base, sel)), res.TotalHits)
				}
			}
		}
	})
}
