// Package proxy implements HTTP read-through cache for JSON upstream.
package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
	"github.com/vearutop/bgcache"
	"github.com/vearutop/bgcache/gocache"
	"github.com/vearutop/bgcache/memcached"
	"github.com/vearutop/bgcache/redisstore"
)

// Server is a configured proxy instance.
type Server struct {
	Config      Config
	Cache       *bgcache.Cache
	Invalidator *bgcache.Invalidator
	Stats       *PromTracker
	Handler     http.Handler
	Warmer      *Warmer

	log     ctxd.Logger
	closers []io.Closer
	srv     *http.Server
}

// NewServer creates proxy from config.
func NewServer(cfg Config, logger ctxd.Logger) (*Server, error) {
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = ctxd.NoOpLogger{}
	}

	s := &Server{
		Config:      cfg,
		Invalidator: &bgcache.Invalidator{},
		Stats:       NewPromTracker(),
		log:         logger,
	}

	store, err := s.newStore()
	if err != nil {
		return nil, err
	}

	up := Upstream{
		BaseURL: cfg.Upstream,
		Client:  &http.Client{Timeout: cfg.UpstreamTimeout},
	}

	s.Cache = bgcache.New(up.Produce, bgcache.Config{
		Name:   cfg.Name,
		TTL:    cfg.TTL,
		Store:  store,
		Logger: logger,
		Stats:  s.Stats,
	})

	s.Cache.OnFetch(func(f *bgcache.Fetch) {
		s.Stats.Add(context.Background(), "bgcache_upstream_request", 1, "name", cfg.Name)
	})

	s.Handler = NewRouter(s.Cache, s.Invalidator, s.Stats.Handler(), logger)
	s.Warmer = NewWarmer(s.Cache, cfg.WarmKeys, logger)

	return s, nil
}

func (s *Server) newStore() (bgcache.Store, error) {
	switch s.Config.Store {
	case StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: s.Config.RedisAddr})
		s.closers = append(s.closers, client)

		return redisstore.New(client, redisstore.Config{}), nil
	case StoreMemcached:
		return memcached.New(memcache.New(s.Config.MemcachedAddr), memcached.Config{}), nil
	case StoreGoCache:
		store := gocache.New(gocache.Config{})
		s.Invalidator.Add(store.DeleteAll)

		return store, nil
	case StoreMemory:
		store := bgcache.NewShardedMap()
		s.Invalidator.Add(store.DeleteAll)

		return store, nil
	}

	return nil, errors.New("unknown store: " + s.Config.Store)
}

// Run starts warm-up and serves HTTP until context is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Warmer.Start(ctx, s.Config.WarmSchedule); err != nil {
		return err
	}

	s.srv = &http.Server{
		Addr:              s.Config.Listen,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Important(ctx, "starting server", "listen", s.Config.Listen, "upstream", s.Config.Upstream,
			"store", s.Config.Store)

		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.close(ctx)

		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.srv.Shutdown(shutdownCtx)

	s.close(ctx)

	return err
}

func (s *Server) close(ctx context.Context) {
	s.Warmer.Stop()

	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.log.Error(ctx, "failed to close resource", "error", err)
		}
	}
}
