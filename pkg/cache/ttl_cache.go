package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultTTL = 5 * time.Minute

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgallery_cache_hits_total",
		Help: "Aggregate cache lookups answered without recomputing",
	}, []string{"cache", "layer"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgallery_cache_misses_total",
		Help: "Aggregate cache lookups that had to recompute",
	}, []string{"cache"})
)

// Remote is a shared layer behind the local value, usually redis.
type Remote interface {
	Get(ctx context.Context, key string, out any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type entry[T any] struct {
	Data       T         `json:"data"`
	ComputedAt time.Time `json:"computedAt"`
}

// TTLCache holds one computed value for ttl. Two concurrent misses may both
// compute; the mutex only guards the entry.
type TTLCache[T any] struct {
	Key    string
	Remote Remote
	ttl    time.Duration
	now    func() time.Time
	mu     sync.Mutex
	value  *entry[T]
}

func NewTTLCache[T any](key string, ttl time.Duration, remote Remote) *TTLCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache[T]{
		Key:    key,
		Remote: remote,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *TTLCache[T]) TTL() time.Duration {
	return c.ttl
}

func (c *TTLCache[T]) fresh(e *entry[T], now time.Time) bool {
	return e != nil && now.Sub(e.ComputedAt) < c.ttl
}

func (c *TTLCache[T]) local() *entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *TTLCache[T]) store(e *entry[T]) {
	c.mu.Lock()
	c.value = e
	c.mu.Unlock()
}

// Get returns the cached value and when it was computed, calling compute
// when neither the local nor the remote copy is fresh. Compute errors are
// returned and nothing is stored.
func (c *TTLCache[T]) Get(ctx context.Context, compute func(context.Context) (T, error)) (T, time.Time, error) {
	now := c.now()
	if e := c.local(); c.fresh(e, now) {
		cacheHits.WithLabelValues(c.Key, "local").Inc()
		return e.Data, e.ComputedAt, nil
	}

	if c.Remote != nil {
		remote := &entry[T]{}
		if err := c.Remote.Get(ctx, c.Key, remote); err == nil && c.fresh(remote, now) {
			cacheHits.WithLabelValues(c.Key, "remote").Inc()
			c.store(remote)
			return remote.Data, remote.ComputedAt, nil
		}
	}

	cacheMisses.WithLabelValues(c.Key).Inc()
	data, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, time.Time{}, err
	}
	e := &entry[T]{Data: data, ComputedAt: now}
	c.store(e)
	if c.Remote != nil {
		if err := c.Remote.Set(ctx, c.Key, e, c.ttl); err != nil {
			log.Printf("failed to write %s to shared cache: %v", c.Key, err)
		}
	}
	return data, now, nil
}

// Invalidate drops the local value and the shared copy.
func (c *TTLCache[T]) Invalidate(ctx context.Context) {
	c.store(nil)
	if c.Remote != nil {
		if err := c.Remote.Delete(ctx, c.Key); err != nil {
			log.Printf("failed to invalidate %s in shared cache: %v", c.Key, err)
		}
	}
}
