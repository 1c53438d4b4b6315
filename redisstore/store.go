// Package redisstore provides bgcache.Store on top of github.com/redis/go-redis/v9.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/bool64/ctxd"
	"github.com/redis/go-redis/v9"
	"github.com/vearutop/bgcache"
)

// Config controls store instance.
type Config struct {
	// TimeToLive is a redis key expiration, no expiration by default.
	//
	// It is not related to freshness of cached values, expired key is a cache miss.
	TimeToLive time.Duration
}

var _ bgcache.Store = &Store{}

// Store keeps entries in redis.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

// New creates store instance.
func New(client redis.Cmdable, cfg Config) *Store {
	return &Store{
		client: client,
		ttl:    cfg.TimeToLive,
	}
}

// Get returns stored data or bgcache.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, bgcache.ErrNotFound
		}

		return nil, ctxd.WrapError(ctx, err, "redis get failed", "key", key)
	}

	return data, nil
}

// Set stores data.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return ctxd.WrapError(ctx, err, "redis set failed", "key", key)
	}

	return nil
}

// Delete removes data.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return ctxd.WrapError(ctx, err, "redis del failed", "key", key)
	}

	return nil
}
