package bgcache

import (
	"context"
	"encoding/gob"
	"errors"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
)

var _ Store = &ShardedMap{}

const shards = 64

type bucket struct {
	sync.RWMutex
	data map[string][]byte
}

// ShardedMap is an in-process Store.
//
// Keys are distributed among 64 buckets with separate locks to reduce contention.
// Please use NewShardedMap to create instance.
type ShardedMap struct {
	buckets [shards]bucket
}

// NewShardedMap creates an in-process store.
func NewShardedMap() *ShardedMap {
	c := &ShardedMap{}

	for i := 0; i < shards; i++ {
		c.buckets[i].data = make(map[string][]byte)
	}

	return c
}

func (c *ShardedMap) bucket(key string) *bucket {
	return &c.buckets[xxhash.Sum64String(key)%shards]
}

// Get returns a copy of stored data.
func (c *ShardedMap) Get(_ context.Context, key string) ([]byte, error) {
	b := c.bucket(key)

	b.RLock()
	data, found := b.data[key]
	b.RUnlock()

	if !found {
		return nil, ErrNotFound
	}

	return append([]byte(nil), data...), nil
}

// Set stores a copy of data.
func (c *ShardedMap) Set(_ context.Context, key string, data []byte) error {
	b := c.bucket(key)
	data = append([]byte(nil), data...)

	b.Lock()
	b.data[key] = data
	b.Unlock()

	return nil
}

// Delete removes data.
func (c *ShardedMap) Delete(_ context.Context, key string) error {
	b := c.bucket(key)

	b.Lock()
	delete(b.data, key)
	b.Unlock()

	return nil
}

// DeleteAll erases all entries.
func (c *ShardedMap) DeleteAll() {
	for i := range c.buckets {
		b := &c.buckets[i]

		b.Lock()
		b.data = make(map[string][]byte)
		b.Unlock()
	}
}

// Len returns number of stored entries.
func (c *ShardedMap) Len() int {
	cnt := 0

	for i := range c.buckets {
		b := &c.buckets[i]

		b.RLock()
		cnt += len(b.data)
		b.RUnlock()
	}

	return cnt
}

// Walk calls function for every stored entry and stops on first error.
//
// Count of processed entries is returned.
func (c *ShardedMap) Walk(walkFn func(key string, data []byte) error) (int, error) {
	n := 0

	for i := range c.buckets {
		b := &c.buckets[i]

		b.RLock()
		keys := make([]string, 0, len(b.data))
		for k := range b.data {
			keys = append(keys, k)
		}
		b.RUnlock()

		for _, k := range keys {
			b.RLock()
			data, found := b.data[k]
			b.RUnlock()

			if !found {
				continue
			}

			if err := walkFn(k, data); err != nil {
				return n, err
			}

			n++
		}
	}

	return n, nil
}

type dumpedEntry struct {
	Key  string
	Data []byte
}

// Dump saves stored entries and returns a number of processed entries.
func (c *ShardedMap) Dump(w io.Writer) (int, error) {
	encoder := gob.NewEncoder(w)

	return c.Walk(func(key string, data []byte) error {
		return encoder.Encode(dumpedEntry{Key: key, Data: data})
	})
}

// Restore loads entries saved with Dump and returns number of processed entries.
func (c *ShardedMap) Restore(r io.Reader) (int, error) {
	var (
		decoder = gob.NewDecoder(r)
		n       = 0
	)

	for {
		var e dumpedEntry

		err := decoder.Decode(&e)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return n, err
		}

		b := c.bucket(e.Key)

		b.Lock()
		b.data[e.Key] = e.Data
		b.Unlock()

		n++
	}

	return n, nil
}
