package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/storage"
	"github.com/matst80/slask-gallery/pkg/types"
)

var file = flag.String("file", "photos.jsonl.gz", "json lines of photos to load, gzipped when ending in .gz")
var export = flag.Bool("export", false, "write every stored photo to -file instead of loading it")
var batchSize = flag.Int("batch", 500, "photos per upsert")
var databaseUrl = os.Getenv("DATABASE_URL")

func exportPhotos(ctx context.Context, db *storage.SqlStore) error {
	photos := make([]types.Photo, 0)
	page := query.Page{Limit: *batchSize, Sort: types.SortOldest}
	for {
		res, err := db.Find(ctx, query.Query{}, page)
		if err != nil {
			return err
		}
		photos = append(photos, res.Items...)
		if len(res.Items) < page.Limit {
			break
		}
		page.Offset += page.Limit
	}
	log.Printf("exporting %d photos to %s", len(photos), *file)
	return storage.SavePhotoFile(*file, photos)
}

// storedCount reports how many photos the store holds, -1 when it cannot
// tell.
func storedCount(ctx context.Context, db query.Store) int {
	total, err := db.Count(ctx, query.Query{})
	if err != nil {
		log.Printf("failed to count stored photos: %v", err)
		return -1
	}
	return total
}

func main() {
	flag.Parse()
	if *batchSize <= 0 {
		*batchSize = 500
	}
	if databaseUrl == "" {
		log.Fatal("DATABASE_URL is required")
	}
	db, err := storage.Open(storage.Options{Dsn: databaseUrl}, types.DefaultCatalog)
	if err != nil {
		log.Fatalf("failed to open photo store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if *export {
		if err := exportPhotos(ctx, db); err != nil {
			log.Fatalf("failed to export photos: %v", err)
		}
		return
	}

	start := time.Now()
	n, err := storage.LoadPhotoFile(*file, *batchSize, func(photos []types.Photo) error {
		return db.Upsert(ctx, photos...)
	})
	if err != nil {
		log.Fatalf("failed after %d photos: %v", n, err)
	}
	log.Printf("seeded %d photos in %v, store holds %d", n, time.Since(start), storedCount(ctx, db))
}
