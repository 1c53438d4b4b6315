package bgcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type ctxKey struct{}

func TestDetach(t *testing.T) {
	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), ctxKey{}, "foo"), time.Second)
	cancel()

	ctx := detach(parent)

	assert.Error(t, parent.Err())
	assert.NoError(t, ctx.Err())
	assert.Nil(t, ctx.Done())
	assert.Equal(t, "foo", ctx.Value(ctxKey{}))

	_, ok := ctx.Deadline()
	assert.False(t, ok)

	assert.Equal(t, ctx, detach(ctx))
}
