// Package cache implements the per-session metadata cache: namespace
// lists, collection lists, and table schemas, each TTL-bound and
// invalidated by the consistency coordinator when a mutation could have
// changed the structure it describes.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/raphplt/QoreDB/pkg/errors"
	"github.com/raphplt/QoreDB/pkg/models"
	"github.com/raphplt/QoreDB/pkg/repositories"
)

// DefaultTTL is the age threshold after which an entry must be refetched.
const DefaultTTL = 5 * time.Minute

// Logger defines logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// MetricsCollector defines metrics collection interface.
type MetricsCollector interface {
	IncrementCounter(name string, labels ...string)
	RecordHistogram(name string, value float64, labels ...string)
	RecordGauge(name string, value float64, labels ...string)
}

const keyNamespaces = "namespaces"

func keyCollections(ns models.Namespace) string {
	return "collections:" + ns.Key()
}

func keySchema(ns models.Namespace, table string) string {
	return "schema:" + ns.TableKey(table)
}

// namespacesEntry, collectionsEntry, and schemaEntry are written
// wholesale: a fetch either replaces the whole {value, fetchedAt} pair
// or leaves the prior entry untouched.
type namespacesEntry struct {
	value     []models.Namespace
	fetchedAt time.Time
}

type collectionsEntry struct {
	value     []models.Collection
	fetchedAt time.Time
}

type schemaEntry struct {
	value     *models.TableSchema
	fetchedAt time.Time
}

// sessionCache holds all cached metadata for one connected session.
type sessionCache struct {
	namespaces  *namespacesEntry
	collections map[string]*collectionsEntry
	schemas     map[string]*schemaEntry

	// invalidatedAt records, per key, the watermark after which a
	// completing fetch that started earlier must discard its result.
	invalidatedAt map[string]time.Time
	// flushedAt is the session-wide watermark set by ForceRefreshAll.
	flushedAt time.Time
}

func newSessionCache() *sessionCache {
	return &sessionCache{
		collections:   make(map[string]*collectionsEntry),
		schemas:       make(map[string]*schemaEntry),
		invalidatedAt: make(map[string]time.Time),
	}
}

// staleStart reports whether a fetch that started at the given time was
// overtaken by an invalidation and must not populate the key.
func (sc *sessionCache) staleStart(key string, start time.Time) bool {
	if !start.After(sc.flushedAt) {
		return true
	}
	wm, ok := sc.invalidatedAt[key]
	return ok && !start.After(wm)
}

// MetadataCache owns every SessionCache, created on first use and
// destroyed on disconnect. It is safe for concurrent use; no lock is
// held across a fetch, so several fetches can be in flight at once.
type MetadataCache struct {
	mu       sync.Mutex
	sessions map[models.SessionID]*sessionCache

	fetcher repositories.MetadataFetcher
	ttl     time.Duration
	now     func() time.Time
	logger  Logger
	metrics MetricsCollector
	stats   *StatsCollector
}

// NewMetadataCache creates a cache over the given fetch collaborator.
// A non-positive ttl falls back to DefaultTTL.
func NewMetadataCache(fetcher repositories.MetadataFetcher, ttl time.Duration, logger Logger, metrics MetricsCollector) *MetadataCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MetadataCache{
		sessions: make(map[models.SessionID]*sessionCache),
		fetcher:  fetcher,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		metrics:  metrics,
		stats:    NewStatsCollector(),
	}
}

// WithClock overrides the time source. Intended for tests.
func (c *MetadataCache) WithClock(now func() time.Time) *MetadataCache {
	c.now = now
	return c
}

// Stats returns the live cache statistics.
func (c *MetadataCache) Stats() Stats {
	return c.stats.Snapshot()
}

func (c *MetadataCache) fresh(fetchedAt time.Time) bool {
	return c.now().Sub(fetchedAt) < c.ttl
}

// sessionLocked returns the session cache, creating it on first use.
// The caller holds c.mu.
func (c *MetadataCache) sessionLocked(session models.SessionID) *sessionCache {
	sc, ok := c.sessions[session]
	if !ok {
		sc = newSessionCache()
		c.sessions[session] = sc
	}
	return sc
}

// GetNamespaces returns the namespace list for a session, serving a
// fresh cached value without any external call and refetching
// otherwise. A fetch failure leaves any prior entry untouched.
func (c *MetadataCache) GetNamespaces(ctx context.Context, session models.SessionID) ([]models.Namespace, error) {
	c.mu.Lock()
	sc := c.sessionLocked(session)
	if e := sc.namespaces; e != nil && c.fresh(e.fetchedAt) {
		c.mu.Unlock()
		c.hit("namespaces")
		return e.value, nil
	}
	c.mu.Unlock()
	c.miss("namespaces")

	start := c.now()
	value, err := c.fetcher.FetchNamespaces(ctx, session)
	if err != nil {
		c.logger.Error("Namespace fetch failed", "error", err, "session", session.String())
		return nil, errors.Wrap(err, errors.CodeMetadataFailed, "failed to fetch namespaces")
	}

	c.mu.Lock()
	if sc, ok := c.sessions[session]; ok && !sc.staleStart(keyNamespaces, start) {
		sc.namespaces = &namespacesEntry{value: value, fetchedAt: c.now()}
	}
	c.mu.Unlock()
	return value, nil
}

// GetCollections returns the collection list of one namespace.
func (c *MetadataCache) GetCollections(ctx context.Context, session models.SessionID, namespace models.Namespace) ([]models.Collection, error) {
	key := keyCollections(namespace)

	c.mu.Lock()
	sc := c.sessionLocked(session)
	if e, ok := sc.collections[namespace.Key()]; ok && c.fresh(e.fetchedAt) {
		c.mu.Unlock()
		c.hit("collections")
		return e.value, nil
	}
	c.mu.Unlock()
	c.miss("collections")

	start := c.now()
	value, err := c.fetcher.FetchCollections(ctx, session, namespace)
	if err != nil {
		c.logger.Error("Collection fetch failed",
			"error", err,
			"session", session.String(),
			"namespace", namespace.Key())
		return nil, errors.Wrap(err, errors.CodeMetadataFailed, "failed to fetch collections")
	}

	c.mu.Lock()
	if sc, ok := c.sessions[session]; ok && !sc.staleStart(key, start) {
		sc.collections[namespace.Key()] = &collectionsEntry{value: value, fetchedAt: c.now()}
	}
	c.mu.Unlock()
	return value, nil
}

// GetTableSchema returns the schema of one table or collection.
func (c *MetadataCache) GetTableSchema(ctx context.Context, session models.SessionID, namespace models.Namespace, table string) (*models.TableSchema, error) {
	key := keySchema(namespace, table)

	c.mu.Lock()
	sc := c.sessionLocked(session)
	if e, ok := sc.schemas[namespace.TableKey(table)]; ok && c.fresh(e.fetchedAt) {
		c.mu.Unlock()
		c.hit("schema")
		return e.value, nil
	}
	c.mu.Unlock()
	c.miss("schema")

	start := c.now()
	value, err := c.fetcher.FetchTableSchema(ctx, session, namespace, table)
	if err != nil {
		c.logger.Error("Schema fetch failed",
			"error", err,
			"session", session.String(),
			"table", namespace.TableKey(table))
		return nil, errors.Wrap(err, errors.CodeMetadataFailed, "failed to fetch table schema")
	}

	c.mu.Lock()
	if sc, ok := c.sessions[session]; ok && !sc.staleStart(key, start) {
		sc.schemas[namespace.TableKey(table)] = &schemaEntry{value: value, fetchedAt: c.now()}
	}
	c.mu.Unlock()
	return value, nil
}

// InvalidateNamespaces clears the namespace list entry. Idempotent.
func (c *MetadataCache) InvalidateNamespaces(session models.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc, ok := c.sessions[session]
	if !ok {
		return
	}
	sc.namespaces = nil
	sc.invalidatedAt[keyNamespaces] = c.now()
	c.stats.RecordInvalidation()
}

// InvalidateCollections removes the collection list of one namespace.
// Idempotent.
func (c *MetadataCache) InvalidateCollections(session models.SessionID, namespace models.Namespace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc, ok := c.sessions[session]
	if !ok {
		return
	}
	delete(sc.collections, namespace.Key())
	sc.invalidatedAt[keyCollections(namespace)] = c.now()
	c.stats.RecordInvalidation()
}

// InvalidateTableSchema removes the schema of one table. Idempotent.
func (c *MetadataCache) InvalidateTableSchema(session models.SessionID, namespace models.Namespace, table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc, ok := c.sessions[session]
	if !ok {
		return
	}
	delete(sc.schemas, namespace.TableKey(table))
	sc.invalidatedAt[keySchema(namespace, table)] = c.now()
	c.stats.RecordInvalidation()
}

// ForceRefreshAll clears everything cached for a session, so every
// subsequent read refetches.
func (c *MetadataCache) ForceRefreshAll(session models.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc, ok := c.sessions[session]
	if !ok {
		return
	}
	sc.namespaces = nil
	sc.collections = make(map[string]*collectionsEntry)
	sc.schemas = make(map[string]*schemaEntry)
	sc.flushedAt = c.now()
	c.stats.RecordInvalidation()
}

// DropSession removes the whole SessionCache; in-flight fetches for the
// session discard their results on completion.
func (c *MetadataCache) DropSession(session models.SessionID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[session]; ok {
		delete(c.sessions, session)
		c.logger.Debug("Dropped session cache", "session", session.String())
	}
}

// Sessions returns the number of sessions currently cached.
func (c *MetadataCache) Sessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *MetadataCache) hit(kind string) {
	c.stats.RecordHit()
	c.metrics.IncrementCounter("metadata_cache_hits_total", "kind", kind)
}

func (c *MetadataCache) miss(kind string) {
	c.stats.RecordMiss()
	c.metrics.IncrementCounter("metadata_cache_misses_total", "kind", kind)
}
