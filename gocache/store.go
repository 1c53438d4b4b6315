// Package gocache provides bgcache.Store on top of github.com/patrickmn/go-cache.
package gocache

import (
	"context"
	"time"

	pca "github.com/patrickmn/go-cache"
	"github.com/vearutop/bgcache"
)

// Config controls store instance.
type Config struct {
	// TimeToLive is a hard expiration of stored entries, no expiration by default.
	//
	// It is not related to freshness of cached values, expired entry is a cache miss.
	TimeToLive time.Duration

	// CleanupInterval is delay between two consecutive removals of expired entries, default 10m.
	CleanupInterval time.Duration
}

var _ bgcache.Store = &Store{}

// Store is an in-process store with optional expiration.
type Store struct {
	c   *pca.Cache
	ttl time.Duration
}

// New creates store instance.
func New(cfg Config) *Store {
	ttl := cfg.TimeToLive
	if ttl <= 0 {
		ttl = pca.NoExpiration
	}

	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}

	return &Store{
		c:   pca.New(ttl, cfg.CleanupInterval),
		ttl: ttl,
	}
}

// Get returns stored data or bgcache.ErrNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, found := s.c.Get(key)
	if !found {
		return nil, bgcache.ErrNotFound
	}

	data, ok := v.([]byte)
	if !ok {
		return nil, bgcache.ErrNotFound
	}

	return append([]byte(nil), data...), nil
}

// Set stores a copy of data.
func (s *Store) Set(_ context.Context, key string, data []byte) error {
	s.c.Set(key, append([]byte(nil), data...), s.ttl)

	return nil
}

// Delete removes data.
func (s *Store) Delete(_ context.Context, key string) error {
	s.c.Delete(key)

	return nil
}

// Len returns number of stored entries, including expired ones not yet cleaned up.
func (s *Store) Len() int {
	return s.c.ItemCount()
}

// DeleteAll erases all entries.
func (s *Store) DeleteAll() {
	s.c.Flush()
}
