// Package memcached provides bgcache.Store on top of github.com/bradfitz/gomemcache.
package memcached

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/cespare/xxhash/v2"
	"github.com/vearutop/bgcache"
)

// maxKeyLength is a memcached protocol limit.
const maxKeyLength = 250

// Config controls store instance.
type Config struct {
	// TimeToLive is a memcached item expiration, no expiration by default.
	//
	// It is not related to freshness of cached values, expired item is a cache miss.
	TimeToLive time.Duration
}

var _ bgcache.Store = &Store{}

// Store keeps entries in memcached.
//
// Keys that memcached can not accept (too long or with spaces or control characters)
// are replaced with their hash.
type Store struct {
	client *memcache.Client
	exp    int32
}

// New creates store instance.
func New(client *memcache.Client, cfg Config) *Store {
	return &Store{
		client: client,
		exp:    int32(cfg.TimeToLive / time.Second),
	}
}

// Get returns stored data or bgcache.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	item, err := s.client.Get(itemKey(key))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, bgcache.ErrNotFound
		}

		return nil, ctxd.WrapError(ctx, err, "memcached get failed", "key", key)
	}

	return item.Value, nil
}

// Set stores data.
func (s *Store) Set(ctx context.Context, key string, data []byte) error {
	err := s.client.Set(&memcache.Item{
		Key:        itemKey(key),
		Value:      data,
		Expiration: s.exp,
	})
	if err != nil {
		return ctxd.WrapError(ctx, err, "memcached set failed", "key", key)
	}

	return nil
}

// Delete removes data.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.Delete(itemKey(key))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return ctxd.WrapError(ctx, err, "memcached delete failed", "key", key)
	}

	return nil
}

func itemKey(key string) string {
	if legalKey(key) {
		return key
	}

	return "xxh:" + strconv.FormatUint(xxhash.Sum64String(key), 36)
}

func legalKey(key string) bool {
	if len(key) == 0 || len(key) > maxKeyLength {
		return false
	}

	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] == 0x7f {
			return false
		}
	}

	return true
}
