package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/benchwise/toolrec/internal/config"
	"github.com/benchwise/toolrec/internal/domain/recommend"
	"github.com/benchwise/toolrec/internal/port/source"
	"github.com/benchwise/toolrec/internal/resilience"
)

const sourceName = "graph"

func init() {
	source.Register(sourceName, func(cfg *config.Config) (source.Adapter, error) {
		client := NewClient(cfg.Backends.Graph.URL)
		client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		return NewAdapter(client, cfg.Backends.Graph.MaxRating, cfg.Backends.Graph.TopK), nil
	})
}

// Adapter converts graph store results into scored candidates.
// Confidence is the item's rating normalized by the store's rating ceiling,
// scaled by a skill-level multiplier and clamped to [0,1].
type Adapter struct {
	api       API
	maxRating float64
	topK      int
}

// NewAdapter creates a graph source adapter over the given API client.
func NewAdapter(api API, maxRating float64, topK int) *Adapter {
	if maxRating <= 0 {
		maxRating = 5.0
	}
	if topK < 1 {
		topK = 20
	}
	return &Adapter{api: api, maxRating: maxRating, topK: topK}
}

// Name returns the component identifier "graph".
func (a *Adapter) Name() string { return sourceName }

// BreakerState reports the backend client's breaker state when the client
// exposes one.
func (a *Adapter) BreakerState() string {
	if hr, ok := a.api.(source.HealthReporter); ok {
		return hr.BreakerState()
	}
	return "closed"
}

// Fetch queries the graph store and scores each related tool.
func (a *Adapter) Fetch(ctx context.Context, req *recommend.Request, timeout time.Duration) ([]recommend.ComponentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tools, err := a.api.RelatedTools(ctx, req.ProjectType, req.Query, a.topK)
	if err != nil {
		return nil, fmt.Errorf("graph fetch: %w", err)
	}

	mult := skillMultiplier(req.SkillLevel)
	results := make([]recommend.ComponentResult, 0, len(tools))
	for _, t := range tools {
		attrs := map[string]any{}
		if t.Category != "" {
			attrs[recommend.AttrCategory] = t.Category
		}
		if t.Brand != "" {
			attrs[recommend.AttrBrand] = t.Brand
		}
		if t.Price != nil {
			attrs[recommend.AttrPrice] = *t.Price
		}
		if t.Difficulty != "" {
			attrs[recommend.AttrDifficulty] = t.Difficulty
		}
		if t.SafetyRating != nil {
			attrs[recommend.AttrSafetyRating] = *t.SafetyRating
		}

		results = append(results, recommend.ComponentResult{
			Name:       t.Name,
			Source:     sourceName,
			Confidence: recommend.Clamp01(t.Rating / a.maxRating * mult),
			Attributes: attrs,
		})
	}
	return results, nil
}

// skillMultiplier biases graph confidence by requester proficiency:
// novices get conservative scores, experienced users slightly boosted ones.
func skillMultiplier(level recommend.SkillLevel) float64 {
	switch level {
	case recommend.SkillBeginner:
		return 0.8
	case recommend.SkillAdvanced:
		return 1.2
	default:
		return 1.0
	}
}
