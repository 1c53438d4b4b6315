// Package bgcache provides a stale-while-revalidate read-through cache on top of a key-value store.
//
// If a value is stored, serve it up, even if it's stale. If stored value is stale, update it for
// future requests without making the caller wait. Don't hammer the producer: only one fetch per key
// is in flight at a time.
//
// Features:
//
//   - Concurrent callers of the same key share a single producer invocation.
//   - Stale values are served immediately, refresh happens in background.
//   - Background refresh failures never reach callers, "not found" failures evict stored entry.
//   - Store failures degrade to synchronous fetch, they are logged and never returned.
//   - Foreign or malformed stored entries are treated as missing.
//   - Pluggable stores (in-process, redis, memcached, go-cache) and codecs (JSON, gob).
//   - Optional short-lived caching of fetch errors to avoid flooding unhealthy upstream.
//   - Allows logging, stats collection and fetch notifications.
package bgcache
