package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/query/querytest"
	"github.com/matst80/slask-gallery/pkg/types"
)

func openTestStore(t *testing.T) *SqlStore {
	t.Helper()
	s, err := Open(Options{Dsn: filepath.Join(t.TempDir(), "photos.db")}, types.DefaultCatalog)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newSqlStore(t *testing.T, photos []types.Photo) query.Store {
	t.Helper()
	s := openTestStore(t)
	if err := s.Upsert(context.Background(), photos...); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}
	return s
}

func TestSqlStore(t *testing.T) {
	querytest.Run(t, newSqlStore)
}

func TestUpsertUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	p := types.Photo{Title: "Spike", Sport: "Volleyball", Lighting: "natural"}
	if err := s.Upsert(ctx, p); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	total, _ := s.Count(ctx, query.Query{})
	if total != 1 {
		t.Fatalf("Expected 1 photo, got %d", total)
	}
	res, _ := s.Find(ctx, query.Query{}, query.Page{Limit: 10})
	stored := res.Items[0]
	if stored.Id == uuid.Nil || stored.Sport != "volleyball" {
		t.Errorf("Expected normalized photo with id, got %+v", stored)
	}

	stored.Lighting = "backlit"
	if err := s.Upsert(ctx, stored); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, err := s.Get(ctx, stored.Id)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Lighting != "backlit" {
		t.Errorf("Expected lighting backlit, got %v", got.Lighting)
	}
	if total, _ := s.Count(ctx, query.Query{}); total != 1 {
		t.Errorf("Expected still 1 photo, got %d", total)
	}
}

func TestDeleteAndGetMissing(t *testing.T) {
	ctx := context.Background()
	s := newSqlStore(t, querytest.VolleyballScenario()).(*SqlStore)
	id := querytest.VolleyballScenario()[0].Id
	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if total, _ := s.Count(ctx, query.Query{}); total != 51 {
		t.Errorf("Expected 51 photos, got %d", total)
	}
}

func TestDialector(t *testing.T) {
	if d := dialector("postgres://user@localhost/photos"); d.Name() != "postgres" {
		t.Errorf("Expected postgres dialector, got %s", d.Name())
	}
	if d := dialector("photos.db"); d.Name() != "sqlite" {
		t.Errorf("Expected sqlite dialector, got %s", d.Name())
	}
}
