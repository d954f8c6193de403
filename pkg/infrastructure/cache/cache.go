package cache

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultSweepInterval is how often the background sweep runs
const DefaultSweepInterval = time.Minute

// Entry is one cached value
type Entry struct {
	Value     any
	WrittenAt time.Time
	TTL       time.Duration
}

// Expired reports whether the entry is past its TTL at now
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.WrittenAt) >= e.TTL
}

type slot struct {
	collection Collection
	entry      Entry
}

// Cache is a TTL table of query results keyed by tagged keys. Each collection
// carries an epoch that every invalidation bumps; a fetch started under an
// older epoch never stores its result.
type Cache struct {
	mu      sync.Mutex
	entries map[string]slot
	epochs  map[Collection]uint64

	group    singleflight.Group
	now      func() time.Time
	interval time.Duration
	metrics  *Metrics
	logger   *slog.Logger

	lifecycle sync.Mutex
	started   bool
	stopped   bool
	stop      chan struct{}
	done      chan struct{}
}

// Option configures a Cache
type Option func(*Cache)

// WithClock sets the clock used for TTL checks
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithSweepInterval sets the background sweep period. Non-positive values
// keep the default.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithMetrics sets the prometheus instruments
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates an empty cache. The sweep does not run until Start.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]slot),
		epochs:   make(map[Collection]uint64),
		now:      time.Now,
		interval: DefaultSweepInterval,
		logger:   slog.Default(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	if c.interval <= 0 {
		c.interval = DefaultSweepInterval
	}
	return c
}

// Get returns the live value for key. An expired entry is dropped and counts
// as a miss.
func (c *Cache) Get(key Key) (any, bool) {
	k := key.String()
	label := string(key.Collection)

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.entries[k]
	if ok && s.entry.Expired(c.now()) {
		delete(c.entries, k)
		c.metrics.Evictions.WithLabelValues(label).Inc()
		c.metrics.Entries.Set(float64(len(c.entries)))
		ok = false
	}
	if !ok {
		c.metrics.Misses.WithLabelValues(label).Inc()
		return nil, false
	}
	c.metrics.Hits.WithLabelValues(label).Inc()
	return s.entry.Value, true
}

// Set stores value under key. A non-positive ttl stores nothing.
func (c *Cache) Set(key Key, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(key, value, ttl)
}

func (c *Cache) storeLocked(key Key, value any, ttl time.Duration) {
	c.entries[key.String()] = slot{
		collection: key.Collection,
		entry:      Entry{Value: value, WrittenAt: c.now(), TTL: ttl},
	}
	c.metrics.Entries.Set(float64(len(c.entries)))
}

// GetOrFetch returns the cached value for key or runs fetch and caches its
// result. Concurrent misses on the same key share one fetch. Errors are not
// cached, and a result whose collection was invalidated while it was being
// fetched is returned to its callers but not stored.
func (c *Cache) GetOrFetch(key Key, ttl time.Duration, fetch func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	epoch := c.epoch(key.Collection)
	flight := key.String() + "#" + strconv.FormatUint(epoch, 10)

	v, err, _ := c.group.Do(flight, func() (any, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if ttl > 0 && c.epochs[key.Collection] == epoch {
			c.storeLocked(key, v, ttl)
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (c *Cache) epoch(col Collection) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[col]
}

// Invalidate drops every entry tagged with one of the collections. It is
// idempotent; when it returns no later lookup sees an older value.
func (c *Cache) Invalidate(collections ...Collection) {
	if len(collections) == 0 {
		return
	}
	targets := make(map[Collection]struct{}, len(collections))
	for _, col := range collections {
		targets[col] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for col := range targets {
		c.epochs[col]++
		c.metrics.Invalidations.WithLabelValues(string(col)).Inc()
	}
	for k, s := range c.entries {
		if _, hit := targets[s.collection]; hit {
			delete(c.entries, k)
		}
	}
	c.metrics.Entries.Set(float64(len(c.entries)))
}

// Sweep removes expired entries and returns how many were removed
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, s := range c.entries {
		if s.entry.Expired(now) {
			delete(c.entries, k)
			c.metrics.Evictions.WithLabelValues(string(s.collection)).Inc()
			removed++
		}
	}
	c.metrics.Entries.Set(float64(len(c.entries)))
	return removed
}

// Len returns the number of held entries, live or not yet swept
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Start launches the background sweep. Calling it again, or after Stop, does
// nothing.
func (c *Cache) Start() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true
	go c.run()
}

// Stop ends the background sweep and waits for it to exit. Safe to call more
// than once and without Start.
func (c *Cache) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stop)
	if c.started {
		<-c.done
	}
}

func (c *Cache) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Debug("cache sweep", "evicted", n)
			}
		}
	}
}
