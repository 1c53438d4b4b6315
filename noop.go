package bgcache

import (
	"context"
)

// NoOp is a Store stub, every read is a miss.
type NoOp struct{}

var _ Store = NoOp{}

// Get does not find anything.
func (NoOp) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, ErrNotFound
}

// Set discards data.
func (NoOp) Set(ctx context.Context, key string, data []byte) error {
	return nil
}

// Delete does nothing.
func (NoOp) Delete(ctx context.Context, key string) error {
	return nil
}
