package bgcache

import (
	"time"

	"github.com/goccy/go-json"
)

// DefaultKeySeparator joins cache name and logical key in a store key.
const DefaultKeySeparator = ":"

// Entry is a stored value with its fetch time.
//
// Entry is also the shape returned by Cache.Get on cache hit.
type Entry struct {
	// Value is the producer result.
	Value interface{} `json:"value"`

	// FetchedAt is the producer success time in milliseconds since epoch, zero for foreign entries.
	FetchedAt int64 `json:"fetchedAt,omitempty"`

	// FetchedFromCacheAt is a read time in milliseconds since epoch, it is never stored.
	FetchedFromCacheAt int64 `json:"fetchedFromCacheAt,omitempty"`
}

// FetchedTime returns FetchedAt as time.
func (e Entry) FetchedTime() time.Time {
	return time.UnixMilli(e.FetchedAt)
}

// Codec maps entries to and from store representation.
type Codec interface {
	// Encode serializes entry.
	Encode(e Entry) ([]byte, error)

	// Decode returns nil entry for empty data and *DecodeError for malformed data.
	Decode(data []byte) (*Entry, error)
}

// StoreKey builds a namespaced store key.
func StoreKey(name, key string) string {
	return name + DefaultKeySeparator + key
}

// JSONCodec stores entries as JSON objects, {"value":...,"fetchedAt":...}.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

type storedEntry struct {
	Value     interface{} `json:"value"`
	FetchedAt int64       `json:"fetchedAt,omitempty"`
}

// Encode serializes entry without FetchedFromCacheAt.
func (JSONCodec) Encode(e Entry) ([]byte, error) {
	return json.Marshal(storedEntry{Value: e.Value, FetchedAt: e.FetchedAt})
}

// Decode deserializes entry.
func (JSONCodec) Decode(data []byte) (*Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var se storedEntry

	if err := json.Unmarshal(data, &se); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return &Entry{Value: se.Value, FetchedAt: se.FetchedAt}, nil
}
