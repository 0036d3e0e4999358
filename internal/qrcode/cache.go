// internal/qrcode/cache.go
//
// Hot-record cache for scan traffic.
//
// Context
// -------
// A QR code printed on a poster produces bursts of scans of the same
// short code.  The cache keeps recently scanned records in a sync.Map,
// deduplicates concurrent misses through singleflight, and re-reads a
// record once it is older than freshTTL so the scan-limit gate never sees
// a badly stale scan count.  A background loop evicts idle entries and
// applies LRU pressure when the map grows past maxEntries.
//
// The management API calls Invalidate after every rule mutation, so rule
// edits are visible on the next scan regardless of freshTTL.
//
// Notes
// -----
// • Records are plain structs with no pooled resources, so eviction is
//   just a map delete.
// • Oxford commas, two spaces after periods.
package qrcode

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/qrlink/internal/metrics"
)

// Static defaults.  Override via the Cache constructor if desired.
const (
	FreshTTL      = 5 * time.Second
	IdleTTL       = 10 * time.Minute
	MaxEntries    = 10_000
	EvictInterval = time.Minute

	// loadTimeout bounds one cache-miss database read independently of the
	// requests waiting on it.
	loadTimeout = 5 * time.Second
)

type cacheEntry struct {
	rec      *Record
	loadedAt int64 // UnixNano; staleness gate
	lastSeen int64 // UnixNano; idle/LRU gate
}

// Cache lazily loads records by short code, stores them in a sync.Map, and
// evicts them on idle TTL or LRU pressure.
type Cache struct {
	db          *sqlx.DB
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	freshTTL    time.Duration
	idleTTL     time.Duration
	maxEntries  int
}

// NewCache constructs a Cache and starts the background evictor.
func NewCache(db *sqlx.DB, freshTTL, idleTTL time.Duration, maxEntries int) *Cache {
	c := &Cache{
		db:         db,
		freshTTL:   freshTTL,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the Record for code, loading it on demand and re-loading it
// once the cached copy is older than freshTTL.
func (c *Cache) Get(ctx context.Context, code string) (*Record, error) {
	now := time.Now().UnixNano()
	if v, ok := c.m.Load(code); ok {
		ent := v.(*cacheEntry)
		if now-atomic.LoadInt64(&ent.loadedAt) < int64(c.freshTTL) {
			atomic.StoreInt64(&ent.lastSeen, now)
			return ent.rec, nil
		}
		// Stale; fall through to singleflight reload.
	}

	// The load outlives the first caller: coalesced waiters must not all
	// fail because that one request was cancelled mid-query.
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
	defer cancel()

	v, err, _ := c.sfg.Do(code, func() (interface{}, error) {
		// Double-check after the singleflight barrier.
		if v, ok := c.m.Load(code); ok {
			ent := v.(*cacheEntry)
			if time.Now().UnixNano()-atomic.LoadInt64(&ent.loadedAt) < int64(c.freshTTL) {
				return ent.rec, nil
			}
		}
		rec, err := ByShortCode(loadCtx, c.db, code)
		if err != nil {
			return nil, err
		}
		n := time.Now().UnixNano()
		c.m.Store(code, &cacheEntry{rec: rec, loadedAt: n, lastSeen: n})
		metrics.RecordCacheLoads.Inc()
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Record), nil
}

// Invalidate drops one short code so the next scan reloads it.
func (c *Cache) Invalidate(code string) { c.m.Delete(code) }

// Close stops the evictor ticker.
func (c *Cache) Close() { c.evictTicker.Stop() }

/*──────────────────────────── eviction loop ────────────────────────────────*/

// evictLoop scans the map every EvictInterval and removes entries idle
// longer than idleTTL, then applies LRU pressure down to maxEntries.
func (c *Cache) evictLoop() {
	for range c.evictTicker.C {
		now := time.Now().UnixNano()
		var count int

		c.m.Range(func(key, value any) bool {
			count++
			ent := value.(*cacheEntry)
			idle := time.Duration(now - atomic.LoadInt64(&ent.lastSeen))
			if idle > c.idleTTL {
				c.m.Delete(key)
				count--
				zap.S().Debugw("record evicted", "short_code", key, "idle", idle.Truncate(time.Second))
				metrics.RecordCacheEvictions.Inc()
			}
			return true
		})

		if c.maxEntries > 0 && count > c.maxEntries {
			type kv struct {
				key string
				at  int64
			}
			var all []kv
			c.m.Range(func(key, value any) bool {
				ent := value.(*cacheEntry)
				all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&ent.lastSeen)})
				return true
			})
			sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
			for i := 0; i < count-c.maxEntries && i < len(all); i++ {
				c.m.Delete(all[i].key)
				zap.S().Debugw("record evicted", "short_code", all[i].key, "reason", "lru")
				metrics.RecordCacheEvictions.Inc()
			}
		}
	}
}
