package cache

import (
	"sync/atomic"
	"time"
)

// Stats holds cache statistics
type Stats struct {
	Hits          uint64
	Misses        uint64
	Invalidations uint64
	LastUpdated   time.Time
}

// StatsCollector collects and reports cache statistics. All fields are
// written atomically; Record* calls may come from concurrent getters.
type StatsCollector struct {
	hits          uint64
	misses        uint64
	invalidations uint64
	lastUpdated   int64 // unix nanoseconds
}

// NewStatsCollector creates a new statistics collector
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		lastUpdated: time.Now().UnixNano(),
	}
}

// RecordHit records a cache hit
func (c *StatsCollector) RecordHit() {
	atomic.AddUint64(&c.hits, 1)
	atomic.StoreInt64(&c.lastUpdated, time.Now().UnixNano())
}

// RecordMiss records a cache miss
func (c *StatsCollector) RecordMiss() {
	atomic.AddUint64(&c.misses, 1)
	atomic.StoreInt64(&c.lastUpdated, time.Now().UnixNano())
}

// RecordInvalidation records an explicit invalidation
func (c *StatsCollector) RecordInvalidation() {
	atomic.AddUint64(&c.invalidations, 1)
	atomic.StoreInt64(&c.lastUpdated, time.Now().UnixNano())
}

// Snapshot returns the current cache statistics
func (c *StatsCollector) Snapshot() Stats {
	return Stats{
		Hits:          atomic.LoadUint64(&c.hits),
		Misses:        atomic.LoadUint64(&c.misses),
		Invalidations: atomic.LoadUint64(&c.invalidations),
		LastUpdated:   time.Unix(0, atomic.LoadInt64(&c.lastUpdated)),
	}
}

// HitRate returns the cache hit rate
func (c *StatsCollector) HitRate() float64 {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
