package bgcache_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/bgcache"
)

func TestStoreKey(t *testing.T) {
	assert.Equal(t, "foo:boom", bgcache.StoreKey("foo", "boom"))
	assert.Equal(t, "foo:", bgcache.StoreKey("foo", ""))
	assert.NotEqual(t, bgcache.StoreKey("foo", "bar"), bgcache.StoreKey("fo", "obar"))
}

func TestJSONCodec_Encode(t *testing.T) {
	data, err := bgcache.JSONCodec{}.Encode(bgcache.Entry{
		Value:              "ohai",
		FetchedAt:          1600000000000,
		FetchedFromCacheAt: 1600000000001,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"ohai","fetchedAt":1600000000000}`, string(data))
}

func TestJSONCodec_Decode(t *testing.T) {
	c := bgcache.JSONCodec{}

	e, err := c.Decode(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	e, err = c.Decode([]byte(`{"fetchedAt":1600000000000,"value":{"value":"ohai"}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1600000000000), e.FetchedAt)
	assert.Equal(t, map[string]interface{}{"value": "ohai"}, e.Value)
	assert.Equal(t, int64(1600000000000), e.FetchedTime().UnixMilli())

	// Legacy entry without fetch time.
	e, err = c.Decode([]byte(`{"bang":"blerg"}`))
	require.NoError(t, err)
	assert.Zero(t, e.FetchedAt)

	for _, malformed := range []string{`{"value":`, `[1,2,3]`, `"ohai"`, `{"fetchedAt":"yesterday"}`} {
		e, err = c.Decode([]byte(malformed))
		assert.Nil(t, e, malformed)

		var de *bgcache.DecodeError

		assert.True(t, errors.As(err, &de), malformed)
		assert.Error(t, de.Unwrap())
	}
}

func TestJSONCodec_roundTrip(t *testing.T) {
	c := bgcache.JSONCodec{}

	data, err := c.Encode(bgcache.Entry{Value: []interface{}{"a", 1.5, true}, FetchedAt: 42})
	require.NoError(t, err)

	e, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, &bgcache.Entry{Value: []interface{}{"a", 1.5, true}, FetchedAt: 42}, e)
}
