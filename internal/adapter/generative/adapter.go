package generative

import (
	"context"
	"fmt"
	"time"

	"github.com/benchwise/toolrec/internal/config"
	"github.com/benchwise/toolrec/internal/domain/recommend"
	"github.com/benchwise/toolrec/internal/port/source"
	"github.com/benchwise/toolrec/internal/resilience"
)

const sourceName = "generative"

func init() {
	source.Register(sourceName, func(cfg *config.Config) (source.Adapter, error) {
		gc := cfg.Backends.Generative
		client := NewClient(gc.URL, gc.APIKey, gc.Model)
		client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		return NewAdapter(client), nil
	})
}

// Adapter converts one model suggestion into scored candidates. Every
// candidate from the same call shares the suggestion's self-reported
// confidence and reasoning text.
type Adapter struct {
	api API
}

// NewAdapter creates a generative source adapter over the given API client.
func NewAdapter(api API) *Adapter {
	return &Adapter{api: api}
}

// Name returns the component identifier "generative".
func (a *Adapter) Name() string { return sourceName }

// BreakerState reports the backend client's breaker state when the client
// exposes one.
func (a *Adapter) BreakerState() string {
	if hr, ok := a.api.(source.HealthReporter); ok {
		return hr.BreakerState()
	}
	return "closed"
}

// Fetch makes one model call covering all recommended names for the request.
func (a *Adapter) Fetch(ctx context.Context, req *recommend.Request, timeout time.Duration) ([]recommend.ComponentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	suggestion, err := a.api.Suggest(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generative fetch: %w", err)
	}

	confidence := recommend.Clamp01(suggestion.Confidence)
	results := make([]recommend.ComponentResult, 0, len(suggestion.Items))
	for _, item := range suggestion.Items {
		if item.Name == "" {
			continue
		}
		attrs := map[string]any{}
		if item.Category != "" {
			attrs[recommend.AttrCategory] = item.Category
		}
		if item.EstimatedPrice != nil {
			attrs[recommend.AttrPrice] = *item.EstimatedPrice
		}
		if item.Difficulty != "" {
			attrs[recommend.AttrDifficulty] = item.Difficulty
		}
		if item.SafetyRating != nil {
			attrs[recommend.AttrSafetyRating] = *item.SafetyRating
		}
		if suggestion.Reasoning != "" {
			attrs[recommend.AttrReasoning] = suggestion.Reasoning
		}

		results = append(results, recommend.ComponentResult{
			Name:       item.Name,
			Source:     sourceName,
			Confidence: confidence,
			Attributes: attrs,
		})
	}
	return results, nil
}
