package proxy

import (
	"context"
	"errors"
	"net/http"

	"github.com/bool64/ctxd"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/vearutop/bgcache"
)

// Cache status values of X-Cache response header.
const (
	HeaderCache = "X-Cache"

	CacheHit   = "HIT"
	CacheStale = "STALE"
	CacheMiss  = "MISS"
)

// NewRouter creates HTTP router for cache.
//
// Routes:
//   - GET /v1/{key} returns cached value;
//   - DELETE /v1/{key} evicts stored value;
//   - DELETE /v1 drops all stored values with invalidator if it is not nil;
//   - GET /metrics is served with metrics handler if it is not nil.
func NewRouter(c *bgcache.Cache, inv *bgcache.Invalidator, metrics http.Handler, logger ctxd.Logger) *mux.Router {
	if logger == nil {
		logger = ctxd.NoOpLogger{}
	}

	h := handler{cache: c, inv: inv, log: logger}

	r := mux.NewRouter()
	r.HandleFunc("/v1/{key}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/v1/{key}", h.delete).Methods(http.MethodDelete)

	if inv != nil {
		r.HandleFunc("/v1", h.invalidate).Methods(http.MethodDelete)
	}

	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	return r
}

type handler struct {
	cache *bgcache.Cache
	inv   *bgcache.Invalidator
	log   ctxd.Logger
}

func (h handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	if r.Header.Get("Cache-Control") == "no-cache" {
		ctx = bgcache.WithSkipRead(ctx)
	}

	v, freshness, err := h.cache.Lookup(ctx, key)
	if err != nil {
		h.fail(ctx, w, key, err)

		return
	}

	state := CacheMiss

	switch freshness {
	case bgcache.Fresh:
		state = CacheHit
	case bgcache.Stale:
		state = CacheStale
	}

	w.Header().Set(HeaderCache, state)
	h.writeJSON(ctx, w, http.StatusOK, v)
}

func (h handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := mux.Vars(r)["key"]

	if err := h.cache.Delete(ctx, key); err != nil {
		h.log.Error(ctx, "failed to delete cache entry", "key", key, "error", err)
		h.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: err.Error()})

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h handler) invalidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.inv.Invalidate()

	switch {
	case err == nil:
		h.log.Important(ctx, "cache invalidated", "name", h.cache.Name())
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, bgcache.ErrAlreadyInvalidated):
		h.writeJSON(ctx, w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	default:
		h.writeJSON(ctx, w, http.StatusConflict, errorResponse{Error: err.Error()})
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h handler) fail(ctx context.Context, w http.ResponseWriter, key string, err error) {
	code := http.StatusBadGateway

	switch {
	case bgcache.IsNotFound(err):
		code = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}

	h.log.Debug(ctx, "failed to get value", "key", key, "code", code, "error", err)

	w.Header().Set(HeaderCache, CacheMiss)
	h.writeJSON(ctx, w, code, errorResponse{Error: err.Error()})
}

func (h handler) writeJSON(ctx context.Context, w http.ResponseWriter, code int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error(ctx, "failed to encode response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}
