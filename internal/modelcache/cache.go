// Package modelcache keeps a bounded set of model handles resident and evicts the
// least recently used one when a new model has to be loaded.
package modelcache

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"summarize-pro/internal/inference"
	"summarize-pro/internal/observability/tracing"
)

// DefaultCapacity is the number of resident models when none is configured.
const DefaultCapacity = 3

// Cache maps model keys to loaded handles. At most Capacity handles are resident.
//
// Every operation runs under a single mutex, including model loading and the
// release of an evicted handle, so a miss blocks other acquisitions until it is done.
type Cache struct {
	loader   inference.Loader
	specs    map[string]LoadSpec
	capacity int
	metrics  MetricsRecorder
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	recency *list.List // front is least recently used
}

type entry struct {
	key        string
	identifier string
	task       inference.TaskKind
	handle     inference.Handle
	loadedAt   time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics replaces the Prometheus recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a cache. capacity below 1 falls back to DefaultCapacity.
func New(loader inference.Loader, specs map[string]LoadSpec, capacity int, opts ...Option) (*Cache, error) {
	if loader == nil {
		return nil, fmt.Errorf("modelcache: loader is required")
	}
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	owned := make(map[string]LoadSpec, len(specs))
	for key, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("modelcache: spec %q: %w", key, err)
		}
		spec.Fallbacks = append([]string(nil), spec.Fallbacks...)
		owned[key] = spec
	}

	c := &Cache{
		loader:   loader,
		specs:    owned,
		capacity: capacity,
		metrics:  PrometheusRecorder{},
		now:      time.Now,
		entries:  make(map[string]*list.Element),
		recency:  list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Capacity returns the maximum number of resident handles.
func (c *Cache) Capacity() int { return c.capacity }

// Keys returns every configured model key, sorted.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, len(c.specs))
	for k := range c.specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Acquire returns the handle for key, loading it on a miss. A hit marks the key
// most recently used. On a miss with a full cache the least recently used handle is
// evicted and closed before the new model loads.
func (c *Cache) Acquire(ctx context.Context, key string) (inference.Handle, error) {
	spec, ok := c.specs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModelKey, key)
	}

	ctx, span := tracing.GetTracer().Start(ctx, "modelcache.acquire")
	defer span.End()
	span.SetAttributes(attribute.String("model.key", key))

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.recency.MoveToBack(el)
		c.metrics.RecordHit(key)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return el.Value.(*entry).handle, nil
	}

	c.metrics.RecordMiss(key)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	for c.recency.Len() >= c.capacity {
		c.evictLocked(ctx, c.recency.Front(), "capacity")
	}

	e, err := c.load(ctx, key, spec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model load failed")
		c.metrics.SetResident(c.recency.Len())
		return nil, err
	}
	span.SetAttributes(attribute.String("model.identifier", e.identifier))

	c.entries[key] = c.recency.PushBack(e)
	c.metrics.SetResident(c.recency.Len())
	return e.handle, nil
}

// load tries the primary identifier and then each fallback.
func (c *Cache) load(ctx context.Context, key string, spec LoadSpec) (*entry, error) {
	ids := spec.Identifiers()
	attempts := make([]Attempt, 0, len(ids))

	for i, id := range ids {
		start := c.now()
		h, err := c.loader.Load(ctx, id, spec.Task)
		c.metrics.RecordLoad(key, id, c.now().Sub(start), err)
		if err != nil {
			slog.WarnContext(ctx, "model load failed",
				slog.String("key", key),
				slog.String("identifier", id),
				slog.Int("attempt", i+1),
				slog.Int("remaining", len(ids)-i-1),
				slog.Any("error", err))
			attempts = append(attempts, Attempt{Identifier: id, Err: err})
			continue
		}

		if i > 0 {
			slog.WarnContext(ctx, "loaded fallback model",
				slog.String("key", key),
				slog.String("identifier", id),
				slog.String("primary", ids[0]))
		} else {
			slog.InfoContext(ctx, "model loaded",
				slog.String("key", key),
				slog.String("identifier", id))
		}
		return &entry{key: key, identifier: id, task: spec.Task, handle: h, loadedAt: c.now()}, nil
	}

	return nil, &LoadError{Key: key, Attempts: attempts}
}

// evictLocked removes el, closes its handle and returns its key. Close failures
// are logged only.
func (c *Cache) evictLocked(ctx context.Context, el *list.Element, reason string) string {
	e := c.recency.Remove(el).(*entry)
	delete(c.entries, e.key)
	c.metrics.RecordEviction(e.key)

	if err := e.handle.Close(); err != nil {
		slog.WarnContext(ctx, "failed to release model handle",
			slog.String("key", e.key),
			slog.String("identifier", e.identifier),
			slog.Any("error", err))
	}
	slog.InfoContext(ctx, "model evicted",
		slog.String("key", e.key),
		slog.String("identifier", e.identifier),
		slog.String("reason", reason))
	return e.key
}

// Release evicts key regardless of its position. Absent keys are ignored.
func (c *Cache) Release(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.evictLocked(ctx, el, "released")
		c.metrics.SetResident(c.recency.Len())
	}
}

// Clear releases every resident handle, least recently used first, and returns
// the released keys in that order.
func (c *Cache) Clear(ctx context.Context) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	released := make([]string, 0, c.recency.Len())
	for c.recency.Len() > 0 {
		released = append(released, c.evictLocked(ctx, c.recency.Front(), "cleared"))
	}
	c.metrics.SetResident(0)
	return released
}

// ResidentModel describes one resident handle.
type ResidentModel struct {
	Key        string             `json:"key"`
	Identifier string             `json:"identifier"`
	Task       inference.TaskKind `json:"task"`
	LoadedAt   time.Time          `json:"loaded_at"`
}

// Info is a point-in-time view of the cache.
type Info struct {
	// ResidentKeys is sorted alphabetically.
	ResidentKeys []string `json:"resident_keys"`
	// RecencyOrder lists keys from least to most recently used.
	RecencyOrder []string        `json:"recency_order"`
	Capacity     int             `json:"capacity"`
	Models       []ResidentModel `json:"models"`
}

// Info returns a snapshot. It never changes cache state.
func (c *Cache) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := Info{
		ResidentKeys: make([]string, 0, c.recency.Len()),
		RecencyOrder: make([]string, 0, c.recency.Len()),
		Capacity:     c.capacity,
		Models:       make([]ResidentModel, 0, c.recency.Len()),
	}
	for el := c.recency.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		info.RecencyOrder = append(info.RecencyOrder, e.key)
		info.ResidentKeys = append(info.ResidentKeys, e.key)
		info.Models = append(info.Models, ResidentModel{
			Key:        e.key,
			Identifier: e.identifier,
			Task:       e.task,
			LoadedAt:   e.loadedAt,
		})
	}
	sort.Strings(info.ResidentKeys)
	return info
}
