package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/benchwise/toolrec/internal/adapter/otel"
	"github.com/benchwise/toolrec/internal/domain/recommend"
	"github.com/benchwise/toolrec/internal/logger"
)

// PipelineService orchestrates one recommendation call: validate, consult
// the cache, fan out to sources on a miss, merge and rank, assemble the
// response, and store it. Each call walks
// received -> validated -> cache check -> (hit | fetch -> merge -> store).
type PipelineService struct {
	engine  *EngineService
	merger  *MergerService
	cache   *ResponseCache
	topK    int
	metrics *otel.Metrics
	now     func() time.Time // for testing
}

// NewPipelineService creates a PipelineService with all dependencies.
// topK is the configured maximum number of returned recommendations.
func NewPipelineService(engine *EngineService, merger *MergerService, cache *ResponseCache, topK int) *PipelineService {
	return &PipelineService{
		engine: engine,
		merger: merger,
		cache:  cache,
		topK:   topK,
		now:    time.Now,
	}
}

// SetMetrics attaches metric instruments. Safe to leave unset.
func (s *PipelineService) SetMetrics(m *otel.Metrics) {
	s.metrics = m
}

// GetRecommendations is the public entry point of the fusion core.
//
// Validation errors surface immediately as *recommend.ValidationError with
// every violation listed. Individual source failures degrade into response
// warnings; only total source failure is returned as an error
// (recommend.ErrAllSourcesFailed). Cache problems never fail the call.
func (s *PipelineService) GetRecommendations(ctx context.Context, req *recommend.Request) (*recommend.Response, error) {
	if s.metrics != nil {
		s.metrics.Requests.Add(ctx, 1)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("request validated", "request_id", logger.RequestID(ctx), "query", req.Query)

	resp, fromCache, err := s.cache.GetOrCompute(ctx, req, s.topK, func(ctx context.Context) (*recommend.Response, error) {
		return s.compute(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		if fromCache {
			s.metrics.CacheHits.Add(ctx, 1)
		} else {
			s.metrics.CacheMisses.Add(ctx, 1)
		}
	}
	return resp, nil
}

// InvalidateCache drops any cached response for the given request.
func (s *PipelineService) InvalidateCache(ctx context.Context, req *recommend.Request) error {
	return s.cache.Invalidate(ctx, req, s.topK)
}

// ClearCache drops every cached response.
func (s *PipelineService) ClearCache(ctx context.Context) error {
	return s.cache.Clear(ctx)
}

// compute runs the uncached path: fetch from all sources, merge, rank,
// filter, and assemble a fresh response.
func (s *PipelineService) compute(ctx context.Context, req *recommend.Request) (*recommend.Response, error) {
	start := s.now()

	results, failures, err := s.engine.FetchAll(ctx, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.SourceFailures.Add(ctx, int64(len(failures)))
		}
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	if s.metrics != nil && len(failures) > 0 {
		s.metrics.SourceFailures.Add(ctx, int64(len(failures)))
	}

	merged := s.merger.Merge(results, req)
	scores := s.merger.ComponentScores(results)

	warnings := make([]string, 0, len(failures))
	for _, f := range failures {
		warnings = append(warnings, fmt.Sprintf("%s source unavailable: %s", f.Component, f.Reason))
	}

	elapsed := s.now().Sub(start)
	resp := &recommend.Response{
		ID:               uuid.NewString(),
		Results:          merged,
		TotalConfidence:  s.merger.TotalConfidence(scores),
		ComponentScores:  scores,
		ProcessingTimeMS: elapsed.Milliseconds(),
		FromCache:        false,
		Warnings:         warnings,
	}

	if s.metrics != nil {
		s.metrics.FusionDuration.Record(ctx, elapsed.Seconds())
	}
	slog.Info("fusion complete",
		"results", len(resp.Results),
		"sources_failed", len(failures),
		"elapsed_ms", resp.ProcessingTimeMS,
	)
	return resp, nil
}
