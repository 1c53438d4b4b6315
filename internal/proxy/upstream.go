package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bool64/ctxd"
	"github.com/goccy/go-json"
	"github.com/vearutop/bgcache"
)

// maxErrorBody limits upstream error body kept in UpstreamError.
const maxErrorBody = 512

// UpstreamError describes unexpected upstream response.
type UpstreamError struct {
	URL    string
	Status int
	Body   string
}

// Error implements error.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s responded with status %d: %s", e.URL, e.Status, e.Body)
}

// StatusCode returns upstream response status.
func (e *UpstreamError) StatusCode() int {
	return e.Status
}

// Upstream loads JSON documents from base URL.
type Upstream struct {
	BaseURL string
	Client  *http.Client
}

// Produce requests {BaseURL}/{key} and decodes JSON response.
//
// Missing document is reported with bgcache.NotFound, so that stored entry is evicted.
func (u Upstream) Produce(ctx context.Context, key string) (interface{}, error) {
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}

	uri := u.BaseURL + "/" + url.PathEscape(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to prepare upstream request", "key", key)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, ctxd.WrapError(ctx, err, "upstream request failed", "key", key)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, bgcache.NotFound(&UpstreamError{URL: uri, Status: resp.StatusCode})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return nil, &UpstreamError{URL: uri, Status: resp.StatusCode, Body: string(body)}
	}

	var v interface{}

	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, ctxd.WrapError(ctx, err, "failed to decode upstream response", "key", key)
	}

	return v, nil
}
