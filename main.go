package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/matst80/slask-gallery/pkg/cache"
	"github.com/matst80/slask-gallery/pkg/common"
	"github.com/matst80/slask-gallery/pkg/index"
	"github.com/matst80/slask-gallery/pkg/messaging"
	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/server"
	"github.com/matst80/slask-gallery/pkg/storage"
	"github.com/matst80/slask-gallery/pkg/tracking"
	"github.com/matst80/slask-gallery/pkg/types"
)

var enableProfiling = flag.Bool("profiling", false, "enable profiling endpoints")
var verboseSql = flag.Bool("verbose-sql", false, "log every sql statement")

var databaseUrl = os.Getenv("DATABASE_URL")
var dataFile = os.Getenv("DATA_FILE")
var redisUrl = os.Getenv("REDIS_URL")
var redisPassword = os.Getenv("REDIS_PASSWORD")
var rabbitUrl = os.Getenv("RABBIT_URL")
var jwtSecret = os.Getenv("JWT_SECRET")
var apiKey = os.Getenv("API_KEY")
var listenAddress = envOr("LISTEN_ADDRESS", ":8080")
var debugAddress = envOr("DEBUG_ADDRESS", ":8081")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func cacheTtl() time.Duration {
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		log.Printf("invalid CACHE_TTL_SECONDS %q, using default", v)
	}
	return cache.DefaultTTL
}

// openStore uses the sql store when DATABASE_URL is set, otherwise an in
// memory index seeded from DATA_FILE.
func openStore() (server.PhotoStore, common.ShutdownHook, error) {
	if databaseUrl != "" {
		db, err := storage.Open(storage.Options{
			Dsn:          databaseUrl,
			Verbose:      *verboseSql,
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		}, types.DefaultCatalog)
		if err != nil {
			return nil, nil, err
		}
		return db, func(ctx context.Context) error { return db.Close() }, nil
	}

	idx := index.NewIndex(types.DefaultCatalog)
	if dataFile != "" {
		start := time.Now()
		n, err := storage.LoadPhotoFile(dataFile, 1000, func(photos []types.Photo) error {
			return idx.Upsert(context.Background(), photos...)
		})
		if err != nil {
			return nil, nil, err
		}
		log.Printf("loaded %d photos from %s in %v", n, dataFile, time.Since(start))
	} else {
		log.Println("no DATABASE_URL or DATA_FILE, starting with an empty index")
	}
	return idx, nil, nil
}

func main() {
	flag.Parse()

	store, closeStore, err := openStore()
	if err != nil {
		log.Fatalf("failed to open photo store: %v", err)
	}

	var remote cache.Remote
	var hooks []common.ShutdownHook
	if redisUrl != "" {
		rdb := cache.NewRedisRemote(redisUrl, redisPassword, 0)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx); err != nil {
			log.Printf("redis not reachable, shared cache may miss: %v", err)
		}
		cancel()
		remote = rdb
		hooks = append(hooks, func(ctx context.Context) error { return rdb.Close() })
		log.Printf("shared cache enabled, url: %s", redisUrl)
	}

	ws := server.NewWebServer(store, types.DefaultCatalog, cache.NewTTLCache[types.Distribution]("distribution", cacheTtl(), remote))
	ws.Engine.Base = query.Query{}.VisibleOnly()
	ws.ApiKey = apiKey
	if jwtSecret != "" {
		ws.JwtSecret = []byte(jwtSecret)
	}
	if apiKey == "" && jwtSecret == "" {
		log.Println("no API_KEY or JWT_SECRET, admin api rejects every request")
	}

	if rabbitUrl != "" {
		trk, err := tracking.NewRabbitTracking(rabbitUrl)
		if err != nil {
			log.Printf("failed to connect tracking: %v", err)
		} else {
			ws.Tracking = trk
			hooks = append(hooks, func(ctx context.Context) error { return trk.Close() })
		}

		events, err := messaging.NewPhotoEvents(rabbitUrl)
		if err != nil {
			log.Printf("failed to connect photo events: %v", err)
		} else {
			ws.Events = events
			if err := events.Listen(ws.HandlePhotoChange); err != nil {
				log.Printf("failed to listen to photo changes: %v", err)
			}
			hooks = append(hooks, func(ctx context.Context) error { return events.Close() })
		}
	}
	if closeStore != nil {
		hooks = append(hooks, closeStore)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timeouts := common.LoadTimeoutConfig(common.DefaultTimeouts)
	servers := []*http.Server{
		common.NewServer(listenAddress, ws.Handle(), timeouts),
		common.NewServer(debugAddress, server.DebugHandler(*enableProfiling), timeouts),
	}
	if err := common.RunServersWithShutdown(ctx, "slask-gallery", timeouts, servers, hooks...); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
