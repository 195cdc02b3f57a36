package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/benchwise/toolrec/internal/domain/recommend"
	"github.com/benchwise/toolrec/internal/port/cache"
)

// ResponseCache memoizes completed responses keyed by a stable hash of the
// canonicalized request. Concurrent identical requests collapse into one
// computation via single-flight; the initiating caller sees from_cache=false
// and every joiner (and later reader) sees true. Cache backend errors are
// logged and treated as misses, never surfaced.
type ResponseCache struct {
	store       cache.Cache
	ttl         time.Duration
	includeTopK bool
	group       singleflight.Group
}

// NewResponseCache creates a ResponseCache over the given backend.
// includeTopK folds the requested result count into the cache key so the
// same query with a different count is a distinct entry.
func NewResponseCache(store cache.Cache, ttl time.Duration, includeTopK bool) *ResponseCache {
	return &ResponseCache{
		store:       store,
		ttl:         ttl,
		includeTopK: includeTopK,
	}
}

// GetOrCompute returns the cached response for the request, or runs compute
// exactly once per key across concurrent identical requests and stores the
// result. The bool reports whether the returned response came from the
// cache (true for joiners of an in-flight computation). A cancelled compute
// never populates the cache.
func (c *ResponseCache) GetOrCompute(ctx context.Context, req *recommend.Request, topK int, compute func(context.Context) (*recommend.Response, error)) (*recommend.Response, bool, error) {
	key := c.Key(req, topK)

	if resp, ok := c.lookup(ctx, key); ok {
		return resp, true, nil
	}

	// initiated is set only when this caller's closure actually ran;
	// joiners of an in-flight computation receive the shared result and
	// report it as cached.
	initiated := false
	v, err, _ := c.group.Do(key, func() (any, error) {
		initiated = true

		// A completed flight may have stored the entry between our miss
		// and joining the group.
		if resp, ok := c.lookup(ctx, key); ok {
			return flightResult{resp: resp, cached: true}, nil
		}

		resp, err := compute(ctx)
		if err != nil {
			return flightResult{}, err
		}
		if ctx.Err() != nil {
			return flightResult{}, ctx.Err()
		}

		data, err := json.Marshal(resp)
		if err != nil {
			slog.Warn("response cache encode failed", "error", err)
			return flightResult{resp: resp}, nil
		}
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			slog.Warn("response cache write failed", "key", key, "error", err)
		}
		return flightResult{resp: resp}, nil
	})
	if err != nil {
		return nil, false, err
	}

	fr := v.(flightResult)
	if !initiated || fr.cached {
		joined := *fr.resp
		joined.FromCache = true
		return &joined, true, nil
	}
	return fr.resp, false, nil
}

// flightResult carries a single-flight outcome plus whether it was read
// from the store rather than computed.
type flightResult struct {
	resp   *recommend.Response
	cached bool
}

// Invalidate drops the cached entry for the given request, if any.
func (c *ResponseCache) Invalidate(ctx context.Context, req *recommend.Request, topK int) error {
	return c.store.Delete(ctx, c.Key(req, topK))
}

// Clear drops every cached response.
func (c *ResponseCache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// lookup reads and decodes a cached response, marking it as served from
// cache. Backend or decode errors degrade to a miss.
func (c *ResponseCache) lookup(ctx context.Context, key string) (*recommend.Response, bool) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		slog.Warn("response cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var resp recommend.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		slog.Warn("response cache decode failed", "key", key, "error", err)
		return nil, false
	}
	resp.FromCache = true
	return &resp, true
}

// Key returns the stable cache key for a request: a SHA-256 hash over the
// canonical serialization (trimmed query, sorted list fields), plus the
// requested count when configured.
func (c *ResponseCache) Key(req *recommend.Request, topK int) string {
	canonical := struct {
		Query              string               `json:"query"`
		SkillLevel         recommend.SkillLevel `json:"skill_level"`
		Budget             float64              `json:"budget"`
		Workspace          string               `json:"workspace"`
		ProjectType        string               `json:"project_type"`
		SafetyRequirements []string             `json:"safety_requirements"`
		PreferredBrands    []string             `json:"preferred_brands"`
		ExistingTools      []string             `json:"existing_tools"`
		Timeline           string               `json:"timeline"`
		TopK               int                  `json:"top_k"`
	}{
		Query:              strings.TrimSpace(req.Query),
		SkillLevel:         req.SkillLevel,
		Budget:             req.Budget,
		Workspace:          req.Workspace,
		ProjectType:        req.ProjectType,
		SafetyRequirements: sortedCopy(req.SafetyRequirements),
		PreferredBrands:    sortedCopy(req.PreferredBrands),
		ExistingTools:      sortedCopy(req.ExistingTools),
		Timeline:           req.Timeline,
	}
	if c.includeTopK {
		canonical.TopK = topK
	}

	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// sortedCopy returns a sorted copy of a list field so key hashing does not
// depend on caller-supplied order.
func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
