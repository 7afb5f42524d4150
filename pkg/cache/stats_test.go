package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsCollector_Counts(t *testing.T) {
	collector := NewStatsCollector()

	collector.RecordHit()
	collector.RecordHit()
	collector.RecordMiss()
	collector.RecordInvalidation()

	snap := collector.Snapshot()
	assert.Equal(t, uint64(2), snap.Hits)
	assert.Equal(t, uint64(1), snap.Misses)
	assert.Equal(t, uint64(1), snap.Invalidations)
	assert.False(t, snap.LastUpdated.IsZero())
	assert.InDelta(t, 2.0/3.0, collector.HitRate(), 1e-9)
}

func TestStatsCollector_HitRateEmpty(t *testing.T) {
	collector := NewStatsCollector()
	assert.Equal(t, 0.0, collector.HitRate())
}

// Record and Snapshot calls interleave from concurrent getters; nothing
// here may race, including the last-updated timestamp.
func TestStatsCollector_ConcurrentRecords(t *testing.T) {
	collector := NewStatsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.RecordHit()
				collector.RecordMiss()
				_ = collector.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := collector.Snapshot()
	assert.Equal(t, uint64(800), snap.Hits)
	assert.Equal(t, uint64(800), snap.Misses)
	assert.False(t, snap.LastUpdated.IsZero())
}
