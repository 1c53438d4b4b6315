package bgcache

// Metric names reported with stats.Tracker, labelled with "name".
const (
	MetricHit          = "bgcache_hit"
	MetricStale        = "bgcache_stale"
	MetricMiss         = "bgcache_miss"
	MetricFetch        = "bgcache_fetch"
	MetricFetchFailed  = "bgcache_fetch_failed"
	MetricStoreFailed  = "bgcache_store_failed"
	MetricDecodeFailed = "bgcache_decode_failed"
	MetricEvict        = "bgcache_evict"
	MetricFailedCached = "bgcache_failed_cached"
)
