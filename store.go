package bgcache

import "context"

// Store is a persistent key-value storage for encoded entries.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns stored data or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores data.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes data, missing key is not an error.
	Delete(ctx context.Context, key string) error
}
