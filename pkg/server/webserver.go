package server

import (
	"context"
	"net/http"
	"net/http/pprof"

	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/cache"
	"github.com/matst80/slask-gallery/pkg/common"
	"github.com/matst80/slask-gallery/pkg/messaging"
	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/tracking"
	"github.com/matst80/slask-gallery/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	noSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgallery_searches_total",
		Help: "The total number of photo searches",
	})
	facetSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgallery_facets_total",
		Help: "The total number of facet count requests",
	})
	storeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskgallery_store_errors_total",
		Help: "Requests that failed in the photo store",
	})
	photoWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgallery_photo_writes_total",
		Help: "Photos written through the admin api",
	}, []string{"op"})
)

// PhotoStore is the store contract plus the lookups and writes the http
// layer needs.
type PhotoStore interface {
	query.Store
	Get(ctx context.Context, id uuid.UUID) (*types.Photo, error)
	Upsert(ctx context.Context, photos ...types.Photo) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ChangePublisher interface {
	PublishPhotoChange(change messaging.PhotoChange) error
}

type WebServer struct {
	Engine       *query.Engine
	Photos       PhotoStore
	Distribution *cache.TTLCache[types.Distribution]
	Tracking     tracking.Tracking
	Events       ChangePublisher
	JwtSecret    []byte
	ApiKey       string
}

func NewWebServer(store PhotoStore, catalog types.Catalog, distribution *cache.TTLCache[types.Distribution]) *WebServer {
	if distribution == nil {
		distribution = cache.NewTTLCache[types.Distribution]("distribution", cache.DefaultTTL, nil)
	}
	return &WebServer{
		Engine:       query.NewEngine(store, catalog),
		Photos:       store,
		Distribution: distribution,
	}
}

func defaultHeaders(w http.ResponseWriter, r *http.Request, isJson bool, cacheTime string) {
	w.Header().Set("Cache-Control", "private, stale-while-revalidate="+cacheTime)
	genericHeaders(w, r, isJson)
}

func publicHeaders(w http.ResponseWriter, r *http.Request, isJson bool, cacheTime string) {
	w.Header().Set("Cache-Control", "public, max-age="+cacheTime)
	genericHeaders(w, r, isJson)
}

func genericHeaders(w http.ResponseWriter, r *http.Request, isJson bool) {
	if isJson {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	}
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
}

// Handle mounts the client api under /api and the admin api under /admin.
func (ws *WebServer) Handle() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", ws.ClientHandler()))
	mux.Handle("/admin/", http.StripPrefix("/admin", ws.AdminHandler()))
	return mux
}

// DebugHandler serves health, metrics and optionally pprof on a separate
// listener.
func DebugHandler(enableProfiling bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	if enableProfiling {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

func (ws *WebServer) sessionTracker() common.SessionTracker {
	if ws.Tracking == nil {
		return nil
	}
	return ws.Tracking
}
