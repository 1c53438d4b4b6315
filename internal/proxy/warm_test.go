package proxy_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/bgcache/internal/proxy"
)

func TestWarmer_Warm(t *testing.T) {
	up, calls := newUpstream(t)
	s := newServer(t, proxy.Config{Upstream: up.URL, TTL: time.Hour})
	w := proxy.NewWarmer(s.Cache, []string{"foo", "bar", "bad"}, nil)

	n, err := w.Warm(context.Background())
	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to warm key")
	assert.Equal(t, int64(3), atomic.LoadInt64(calls))

	resp, _ := request(t, s.Handler, http.MethodGet, "/v1/foo")
	assert.Equal(t, proxy.CacheHit, resp.Header.Get(proxy.HeaderCache))

	resp, _ = request(t, s.Handler, http.MethodGet, "/v1/bar")
	assert.Equal(t, proxy.CacheHit, resp.Header.Get(proxy.HeaderCache))
}

func TestWarmer_Start(t *testing.T) {
	up, calls := newUpstream(t)
	s := newServer(t, proxy.Config{Upstream: up.URL, TTL: time.Hour})
	w := proxy.NewWarmer(s.Cache, []string{"foo"}, nil)

	assert.Error(t, w.Start(context.Background(), "every now and then"))

	require.NoError(t, w.Start(context.Background(), "@every 1h"))
	defer w.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(calls) == 1
	}, time.Second, time.Millisecond)

	assert.NoError(t, proxy.NewWarmer(s.Cache, nil, nil).Start(context.Background(), "@every 1h"))
}
