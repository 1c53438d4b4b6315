package bgcache

import (
	"context"
	"errors"
	"time"

	"github.com/bool64/cache"
	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/puzpuzpuz/xsync"
)

// DefaultTTL is used when Config.TTL is not set.
const DefaultTTL = 5 * time.Minute

// Config is configuration for New.
type Config struct {
	// Name is a store key namespace, it is also added to logs and stats.
	Name string

	// TTL is a duration after which stored entry is stale, default DefaultTTL.
	TTL time.Duration

	// Store keeps encoded entries, new ShardedMap by default.
	Store Store

	// Codec encodes entries for Store, JSONCodec by default.
	Codec Codec

	// FailedFetchTTL enables caching of fetch errors for a short time to avoid flooding
	// unhealthy upstream, zero value disables it.
	//
	// Cached error is returned to callers that would otherwise fetch synchronously.
	FailedFetchTTL time.Duration

	// Logger collects messages with context.
	Logger ctxd.Logger

	// Stats tracks stats.
	Stats stats.Tracker
}

// Cache serves stored values and refreshes stale ones in background.
//
// Producer is invoked at most once at a time per key, concurrent callers share the result.
// Please use New to create instance.
type Cache struct {
	producer Producer
	store    Store
	codec    Codec
	pending  *xsync.Map // Fetches in flight by key.
	failures *cache.ShardedMap
	config   Config
	log      ctxd.Logger
	stat     stats.Tracker

	listeners listeners
}

// New creates a Cache instance.
func New(producer Producer, config Config) *Cache {
	if config.TTL == 0 {
		config.TTL = DefaultTTL
	}

	c := &Cache{
		producer: producer,
		config:   config,
		pending:  xsync.NewMap(),
	}

	c.log = config.Logger
	if c.log == nil {
		c.log = ctxd.NoOpLogger{}
	}

	c.stat = config.Stats
	if c.stat == nil {
		c.stat = stats.NoOp{}
	}

	c.store = config.Store
	if c.store == nil {
		c.store = NewShardedMap()
	}

	c.codec = config.Codec
	if c.codec == nil {
		c.codec = JSONCodec{}
	}

	if config.FailedFetchTTL > 0 {
		c.failures = cache.NewShardedMap(func(cfg *cache.Config) {
			cfg.Name = "err_" + config.Name
			cfg.Logger = c.log
			cfg.Stats = c.stat
			cfg.TimeToLive = config.FailedFetchTTL
		})
	}

	return c
}

// Name returns cache name.
func (c *Cache) Name() string {
	return c.config.Name
}

// TTL returns freshness duration.
func (c *Cache) TTL() time.Duration {
	return c.config.TTL
}

// OnFetch registers a callback to be called once for every new fetch.
//
// Callback is invoked synchronously before producer starts, so it must not block.
// Returned function removes the callback.
func (c *Cache) OnFetch(cb func(f *Fetch)) (remove func()) {
	return c.listeners.add(cb)
}

// Get returns value from cache or from producer.
//
// Mind the shape of result, it depends on the path taken:
//   - when a stored entry exists (fresh or stale), it is returned as *Entry with
//     FetchedFromCacheAt set to the time of this call, stale entry also triggers Refresh;
//   - when there is no usable entry, the unwrapped producer result is returned after
//     synchronous fetch.
//
// Use Value to get the unwrapped value in both cases.
//
// Error is only returned from synchronous fetch, it is the producer error as is.
// Store failures and background refresh failures are logged and never returned.
func (c *Cache) Get(ctx context.Context, key string) (interface{}, error) {
	v, _, err := c.Lookup(ctx, key)

	return v, err
}

// Lookup is Get that also reports classification of stored entry that was used to serve the value.
//
// Freshness is Fresh or Stale when result is *Entry, otherwise it is Absent or ForeignFormat.
func (c *Cache) Lookup(ctx context.Context, key string) (interface{}, Freshness, error) {
	e, freshness, v, err := c.get(ctx, key)
	if e != nil {
		return e, freshness, nil
	}

	return v, freshness, err
}

// Value returns value from cache or from producer.
//
// Unlike Get, it returns stored entry value without *Entry envelope.
func (c *Cache) Value(ctx context.Context, key string) (interface{}, error) {
	e, _, v, err := c.get(ctx, key)
	if e != nil {
		return e.Value, nil
	}

	return v, err
}

// Delete removes stored entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.log.Debug(ctx, "deleting from cache", "name", c.config.Name, "key", key)

	return c.store.Delete(ctx, c.storeKey(key))
}

func (c *Cache) get(ctx context.Context, key string) (*Entry, Freshness, interface{}, error) {
	e, freshness := c.read(ctx, key)

	switch freshness {
	case Absent, ForeignFormat:
		c.stat.Add(ctx, MetricMiss, 1, "name", c.config.Name)

		if err := c.recentlyFailed(ctx, key); err != nil {
			return nil, freshness, nil, err
		}

		v, err := c.Fetch(ctx, key).Wait(ctx)
		if err != nil && ctx.Err() == nil {
			c.rememberFailure(ctx, key, err)
		}

		return nil, freshness, v, err
	case Stale:
		c.stat.Add(ctx, MetricStale, 1, "name", c.config.Name)
		c.log.Debug(ctx, "freshening stale cache value",
			"name", c.config.Name,
			"key", key,
			"fetchedAt", e.FetchedTime(),
			"ttl", c.config.TTL)

		c.Refresh(ctx, key)
	case Fresh:
		c.stat.Add(ctx, MetricHit, 1, "name", c.config.Name)
	}

	e.FetchedFromCacheAt = time.Now().UnixMilli()

	return e, freshness, nil, nil
}

// read loads and classifies stored entry, any failure is reported as Absent.
func (c *Cache) read(ctx context.Context, key string) (*Entry, Freshness) {
	if SkipRead(ctx) {
		return nil, Absent
	}

	c.log.Debug(ctx, "checking for key in cache", "name", c.config.Name, "key", key)

	data, err := c.store.Get(ctx, c.storeKey(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.stat.Add(ctx, MetricStoreFailed, 1, "name", c.config.Name)
			c.log.Error(ctx, "failed to read cache entry", "name", c.config.Name, "key", key, "error", err)
		}

		return nil, Absent
	}

	e, err := c.codec.Decode(data)
	if err != nil {
		c.stat.Add(ctx, MetricDecodeFailed, 1, "name", c.config.Name)
		c.log.Warn(ctx, "failed to decode cache entry", "name", c.config.Name, "key", key, "error", err)

		return nil, Absent
	}

	freshness := Classify(e, c.config.TTL, time.Now())

	if freshness == ForeignFormat {
		c.log.Debug(ctx, "cache entry has no fetch time, re-fetching", "name", c.config.Name, "key", key)
	}

	return e, freshness
}

func (c *Cache) storeKey(key string) string {
	return StoreKey(c.config.Name, key)
}

// rememberFailure keeps synchronous fetch error for FailedFetchTTL, background refresh errors are not kept.
func (c *Cache) rememberFailure(ctx context.Context, key string, err error) {
	if c.failures == nil {
		return
	}

	if writeErr := c.failures.Write(ctx, []byte(key), err); writeErr != nil {
		c.log.Error(ctx, "failed to cache fetch failure",
			"error", writeErr,
			"fetchErr", err,
			"name", c.config.Name,
			"key", key)
	}
}

func (c *Cache) recentlyFailed(ctx context.Context, key string) error {
	if c.failures == nil || SkipRead(ctx) {
		return nil
	}

	v, err := c.failures.Read(ctx, []byte(key))
	if err != nil {
		return nil
	}

	if fetchErr, ok := v.(error); ok {
		c.stat.Add(ctx, MetricFailedCached, 1, "name", c.config.Name)

		return fetchErr
	}

	return nil
}
