package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"dojo-hub/internal/domain"
	"dojo-hub/metrics"

	"golang.org/x/sync/singleflight"
)

// Cache defaults.
const (
	DefaultTTL             = 7 * 24 * time.Hour
	DefaultLoadTimeout     = 5 * time.Second
	DefaultCleanupInterval = time.Minute
)

// entry is an immutable profile snapshot. Entries are replaced, never mutated.
type entry struct {
	profile    *domain.UserProfile
	insertedAt time.Time
}

// marker records the latest invalidation of a user.
type marker struct {
	seq uint64
	at  time.Time
}

// ProfileCache is a process-wide per-user profile cache with TTL and explicit
// invalidation. Concurrent misses for the same user share one load.
// Implements domain.ProfileCache.
type ProfileCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	markers map[string]marker
	seq     uint64

	ttl             time.Duration
	loadTimeout     time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	group    singleflight.Group
	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a ProfileCache.
type Option func(*ProfileCache)

// WithLoadTimeout bounds every profile load. Non-positive values keep
// DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option {
	return func(c *ProfileCache) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// WithCleanupInterval sets how often expired entries are evicted.
// Non-positive values keep DefaultCleanupInterval.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *ProfileCache) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *ProfileCache) { c.now = now }
}

// NewProfileCache creates a profile cache and starts its cleanup loop.
// Call Close to stop the loop.
func NewProfileCache(ttl time.Duration, opts ...Option) *ProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ProfileCache{
		entries:         make(map[string]entry),
		markers:         make(map[string]marker),
		ttl:             ttl,
		loadTimeout:     DefaultLoadTimeout,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.cleanupLoop()
	return c
}

// GetOrLoad returns the cached profile for userID while it is younger than the
// TTL; otherwise it runs load, caches the result and returns it. Load errors
// are returned unchanged and nothing is cached.
//
// The load runs detached from ctx cancellation (bounded by the load timeout)
// so an aborted request can still fill the cache; the caller itself stops
// waiting as soon as ctx is done.
func (c *ProfileCache) GetOrLoad(ctx context.Context, userID string, load domain.LoadFunc) (*domain.UserProfile, error) {
	if p, ok := c.lookup(userID); ok {
		metrics.RecordCacheLookup(true)
		return p, nil
	}
	metrics.RecordCacheLookup(false)

	gen := c.generation(userID)
	// Keyed by generation so a call made after an invalidation never joins
	// a load that started before it.
	key := userID + "#" + strconv.FormatUint(gen, 10)

	ch := c.group.DoChan(key, func() (any, error) {
		if p, ok := c.lookup(userID); ok {
			return p, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		start := time.Now()
		p, err := load(loadCtx)
		if err == nil && p == nil {
			err = domain.ErrUserNotFound
		}
		if err != nil {
			metrics.RecordProfileLoad("error", time.Since(start).Seconds())
			return nil, err
		}
		metrics.RecordProfileLoad("ok", time.Since(start).Seconds())

		c.store(userID, gen, p)
		return p, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.UserProfile), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the entry for userID. The next GetOrLoad for that user
// loads afresh, and loads already in flight will not repopulate the slot.
func (c *ProfileCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
	c.seq++
	c.markers[userID] = marker{seq: c.seq, at: c.now()}
	metrics.ProfileCacheEntries.Set(float64(len(c.entries)))
}

// Len returns the number of entries currently held, including expired ones
// not yet evicted.
func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup loop.
func (c *ProfileCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *ProfileCache) lookup(userID string) (*domain.UserProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.entries[userID]
	if !found || c.now().Sub(e.insertedAt) >= c.ttl {
		return nil, false
	}
	return e.profile, true
}

func (c *ProfileCache) generation(userID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.markers[userID].seq
}

// store keeps p only if userID was not invalidated since the load began.
func (c *ProfileCache) store(userID string, gen uint64, p *domain.UserProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.markers[userID].seq != gen {
		return
	}
	c.entries[userID] = entry{profile: p, insertedAt: c.now()}
	metrics.ProfileCacheEntries.Set(float64(len(c.entries)))
}

// cleanup removes expired entries and invalidation markers that no load can
// still be racing against.
func (c *ProfileCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, id)
		}
	}

	retention := max(4*c.loadTimeout, time.Minute)
	for id, m := range c.markers {
		if now.Sub(m.at) > retention {
			delete(c.markers, id)
		}
	}
	metrics.ProfileCacheEntries.Set(float64(len(c.entries)))
}

// cleanupLoop runs periodic cleanup until Close is called.
func (c *ProfileCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}
