package proxy

import (
	"context"

	"github.com/bool64/ctxd"
	"github.com/robfig/cron"
	"github.com/vearutop/bgcache"
	"golang.org/x/sync/errgroup"
)

// Warmer keeps configured keys fresh by refreshing them on schedule.
type Warmer struct {
	cache *bgcache.Cache
	keys  []string
	log   ctxd.Logger
	cron  *cron.Cron
}

// NewWarmer creates warmer for keys.
func NewWarmer(c *bgcache.Cache, keys []string, logger ctxd.Logger) *Warmer {
	if logger == nil {
		logger = ctxd.NoOpLogger{}
	}

	return &Warmer{
		cache: c,
		keys:  keys,
		log:   logger,
	}
}

// Warm refreshes all keys and waits for results.
//
// Returns number of keys that were refreshed successfully, first failure is returned as error.
// Keys that are gone upstream are evicted from cache.
func (w *Warmer) Warm(ctx context.Context) (int, error) {
	var g errgroup.Group

	ok := make([]bool, len(w.keys))

	for i, key := range w.keys {
		i, key := i, key
		f := w.cache.Refresh(ctx, key)

		g.Go(func() error {
			if _, err := f.Wait(ctx); err != nil {
				return ctxd.WrapError(ctx, err, "failed to warm key", "key", key)
			}

			ok[i] = true

			return nil
		})
	}

	err := g.Wait()

	n := 0

	for _, v := range ok {
		if v {
			n++
		}
	}

	return n, err
}

// Start schedules warm-up with cron spec, for example "@every 1m" or "0 */5 * * * *".
//
// First warm-up is done immediately in background.
func (w *Warmer) Start(ctx context.Context, schedule string) error {
	if len(w.keys) == 0 {
		return nil
	}

	job := func() {
		n, err := w.Warm(ctx)
		if err != nil {
			w.log.Warn(ctx, "cache warm-up failed", "warmed", n, "total", len(w.keys), "error", err)

			return
		}

		w.log.Debug(ctx, "cache warmed up", "warmed", n)
	}

	w.cron = cron.New()
	if err := w.cron.AddFunc(schedule, job); err != nil {
		return ctxd.WrapError(ctx, err, "invalid warm-up schedule", "schedule", schedule)
	}

	w.cron.Start()

	go job()

	return nil
}

// Stop stops scheduled warm-up.
func (w *Warmer) Stop() {
	if w.cron != nil {
		w.cron.Stop()
	}
}
