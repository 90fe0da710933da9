package directory

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// Cache holds the regional node directory. A snapshot, once loaded, is only
// ever replaced wholesale; a failed refresh keeps serving the previous
// snapshot however stale it is. At most one fetch is in flight at a time;
// callers arriving during a fetch get the pre-refresh snapshot instead of
// piling on.
type Cache struct {
	src       Source
	ttl       time.Duration
	logPrefix string

	mu      sync.RWMutex
	snap    *snapshot
	lastErr error

	fetchMu sync.Mutex

	now func() time.Time
}

type snapshot struct {
	regions   map[Region][]NodeRecord
	total     int
	fetchedAt time.Time
}

func NewCache(src Source, ttl time.Duration, logPrefix string) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{src: src, ttl: ttl, logPrefix: logPrefix, now: time.Now}
}

// RefreshIfStale fetches a new snapshot when the current one is missing or
// past its TTL. Fetch errors are swallowed here and surfaced only via
// LastError; lookups keep working off the old snapshot.
func (c *Cache) RefreshIfStale(ctx context.Context) {
	if c.snapshotValid() {
		return
	}
	if !c.fetchMu.TryLock() {
		// Another fetch is in flight; serve whatever snapshot exists.
		return
	}
	defer c.fetchMu.Unlock()

	// Re-check under the fetch lock: the fetch we raced may have finished.
	if c.snapshotValid() {
		return
	}

	nodes, err := c.src.FetchAllNodes(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err
		if c.logPrefix != "" {
			if c.snap != nil {
				log.Printf("%s directory refresh failed, serving stale snapshot (age=%s): %v",
					c.logPrefix, c.now().Sub(c.snap.fetchedAt).Round(time.Second), err)
			} else {
				log.Printf("%s directory refresh failed, no snapshot yet: %v", c.logPrefix, err)
			}
		}
		return
	}

	snap := partition(nodes, c.now())
	c.snap = snap
	c.lastErr = nil
	if c.logPrefix != "" {
		log.Printf("%s directory refreshed: total=%d sydney=%d nsw=%d",
			c.logPrefix, snap.total, len(snap.regions[RegionMetro]), len(snap.regions[RegionWide]))
	}
}

func (c *Cache) snapshotValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap != nil && c.now().Sub(c.snap.fetchedAt) < c.ttl
}

// partition pre-filters nodes into the nested region tiers, ordered
// most-recently-seen first (name as tie break, for determinism).
func partition(nodes []NodeRecord, fetchedAt time.Time) *snapshot {
	snap := &snapshot{
		regions:   map[Region][]NodeRecord{},
		total:     len(nodes),
		fetchedAt: fetchedAt,
	}
	for _, n := range nodes {
		if metroBounds.contains(n) {
			snap.regions[RegionMetro] = append(snap.regions[RegionMetro], n)
		}
		if wideBounds.contains(n) {
			snap.regions[RegionWide] = append(snap.regions[RegionWide], n)
		}
	}
	for _, region := range snap.regions {
		sort.SliceStable(region, func(i, j int) bool {
			if !region[i].LastSeen.Equal(region[j].LastSeen) {
				return region[i].LastSeen.After(region[j].LastSeen)
			}
			return region[i].Name < region[j].Name
		})
	}
	return snap
}

// Lookup searches the metro tier first and widens to the fallback tier only
// when the metro tier has no match. Callers never see an unfiltered global
// search.
func (c *Cache) Lookup(ctx context.Context, query string) (NodeRecord, bool) {
	c.RefreshIfStale(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return NodeRecord{}, false
	}
	if n, ok := bestMatch(c.snap.regions[RegionMetro], query); ok {
		return n, true
	}
	return bestMatch(c.snap.regions[RegionWide], query)
}

// Count returns the number of nodes in a region tier.
func (c *Cache) Count(ctx context.Context, region Region) int {
	c.RefreshIfStale(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return 0
	}
	return len(c.snap.regions[region])
}

// TopNodes returns up to n region nodes, most recently seen first.
func (c *Cache) TopNodes(ctx context.Context, region Region, n int) []NodeRecord {
	c.RefreshIfStale(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil || n <= 0 {
		return nil
	}
	nodes := c.snap.regions[region]
	if len(nodes) > n {
		nodes = nodes[:n]
	}
	out := make([]NodeRecord, len(nodes))
	copy(out, nodes)
	return out
}

// ActiveCounts returns the companion and repeater counts for nodes seen
// within the given window.
func (c *Cache) ActiveCounts(ctx context.Context, region Region, within time.Duration) (companions, repeaters int) {
	c.RefreshIfStale(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snap == nil {
		return 0, 0
	}
	cutoff := c.now().Add(-within)
	for _, n := range c.snap.regions[region] {
		if n.LastSeen.IsZero() || n.LastSeen.Before(cutoff) {
			continue
		}
		switch n.Type {
		case TypeCompanion:
			companions++
		case TypeRepeater:
			repeaters++
		}
	}
	return companions, repeaters
}

// LastError reports the most recent refresh failure, nil after a successful
// refresh. Observability only; lookups never return it.
func (c *Cache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}
