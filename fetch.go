package bgcache

import (
	"context"
	"time"
)

// Producer builds a value for a key.
//
// Producer can signal that key is gone upstream with an error recognized by IsNotFound,
// for example NotFound(err).
type Producer func(ctx context.Context, key string) (interface{}, error)

// Fetch is an in-flight producer invocation shared by all callers of the same key.
type Fetch struct {
	key  string
	done chan struct{}

	value interface{}
	err   error
}

// Key returns logical key of fetch.
func (f *Fetch) Key() string {
	return f.key
}

// Done is closed when fetch has settled and its result is written to store.
func (f *Fetch) Done() <-chan struct{} {
	return f.done
}

// Result blocks until fetch has settled and returns producer result.
func (f *Fetch) Result() (interface{}, error) {
	<-f.done

	return f.value, f.err
}

// Wait blocks until fetch has settled or context is done.
//
// Context cancellation stops waiting, fetch itself continues for other callers.
func (f *Fetch) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}

	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Fetch starts producer invocation for a key or joins the one in flight.
//
// Producer runs in background with context detached from cancellation, new fetch is announced
// to OnFetch listeners before producer starts. Successful result is written to store, write
// failures are logged and do not affect the result. Key is released once producer and store
// write have settled, so that next call can start a new fetch.
func (c *Cache) Fetch(ctx context.Context, key string) *Fetch {
	f := &Fetch{key: key, done: make(chan struct{})}

	actual, loaded := c.pending.LoadOrStore(key, f)
	if loaded {
		c.log.Debug(ctx, "fetch is already pending", "name", c.config.Name, "key", key)

		return actual.(*Fetch)
	}

	c.log.Debug(ctx, "no fetch is pending, starting one", "name", c.config.Name, "key", key)
	c.stat.Add(ctx, MetricFetch, 1, "name", c.config.Name)

	c.listeners.notify(f)

	go c.run(detach(ctx), f)

	return f
}

func (c *Cache) run(ctx context.Context, f *Fetch) {
	defer func() {
		c.log.Debug(ctx, "removing pending fetch", "name", c.config.Name, "key", f.key)
		c.pending.Delete(f.key)
		close(f.done)
	}()

	f.value, f.err = c.produce(ctx, f.key)
	if f.err != nil {
		c.stat.Add(ctx, MetricFetchFailed, 1, "name", c.config.Name)
		c.log.Debug(ctx, "fetch failed", "name", c.config.Name, "key", f.key, "error", f.err)

		return
	}

	c.write(ctx, f.key, f.value)
}

func (c *Cache) produce(ctx context.Context, key string) (v interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = panicError{value: r}
		}
	}()

	return c.producer(ctx, key)
}

func (c *Cache) write(ctx context.Context, key string, value interface{}) {
	c.log.Debug(ctx, "got fresh content, storing to cache", "name", c.config.Name, "key", key)

	data, err := c.codec.Encode(Entry{Value: value, FetchedAt: time.Now().UnixMilli()})
	if err != nil {
		c.stat.Add(ctx, MetricStoreFailed, 1, "name", c.config.Name)
		c.log.Error(ctx, "failed to encode cache entry", "name", c.config.Name, "key", key, "error", err)

		return
	}

	if err := c.store.Set(ctx, c.storeKey(key), data); err != nil {
		c.stat.Add(ctx, MetricStoreFailed, 1, "name", c.config.Name)
		c.log.Error(ctx, "failed to store cache entry", "name", c.config.Name, "key", key, "error", err)

		return
	}

	c.log.Debug(ctx, "content is now in cache", "name", c.config.Name, "key", key)
}

// Refresh starts a fetch regardless of stored entry freshness.
//
// Refresh result is not returned to any caller: not found error removes stored entry,
// other errors are logged.
func (c *Cache) Refresh(ctx context.Context, key string) *Fetch {
	ctx = detach(ctx)
	f := c.Fetch(ctx, key)

	go func() {
		_, err := f.Result()
		if err == nil {
			return
		}

		if IsNotFound(err) {
			c.log.Debug(ctx, "deleting from cache", "name", c.config.Name, "key", key)

			if err := c.store.Delete(ctx, c.storeKey(key)); err != nil {
				c.stat.Add(ctx, MetricStoreFailed, 1, "name", c.config.Name)
				c.log.Error(ctx, "failed to delete cache entry", "name", c.config.Name, "key", key, "error", err)

				return
			}

			c.stat.Add(ctx, MetricEvict, 1, "name", c.config.Name)

			return
		}

		c.log.Warn(ctx, "failed to refresh stale cache value in background",
			"error", err,
			"name", c.config.Name,
			"key", key)
	}()

	return f
}
