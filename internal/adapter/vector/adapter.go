package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/benchwise/toolrec/internal/config"
	"github.com/benchwise/toolrec/internal/domain/recommend"
	"github.com/benchwise/toolrec/internal/port/source"
	"github.com/benchwise/toolrec/internal/resilience"
)

const sourceName = "vector"

func init() {
	source.Register(sourceName, func(cfg *config.Config) (source.Adapter, error) {
		client := NewClient(cfg.Backends.Vector.URL)
		client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		return NewAdapter(client, cfg.Backends.Vector.Collection, cfg.Backends.Vector.TopK), nil
	})
}

// Adapter converts vector store matches into scored candidates.
// Confidence is the similarity score 1 - distance, already in [0,1].
type Adapter struct {
	api        API
	collection string
	topK       int
}

// NewAdapter creates a vector source adapter over the given API client.
func NewAdapter(api API, collection string, topK int) *Adapter {
	if topK < 1 {
		topK = 20
	}
	return &Adapter{api: api, collection: collection, topK: topK}
}

// Name returns the component identifier "vector".
func (a *Adapter) Name() string { return sourceName }

// BreakerState reports the backend client's breaker state when the client
// exposes one.
func (a *Adapter) BreakerState() string {
	if hr, ok := a.api.(source.HealthReporter); ok {
		return hr.BreakerState()
	}
	return "closed"
}

// Fetch runs a similarity search for the query and scores each match.
func (a *Adapter) Fetch(ctx context.Context, req *recommend.Request, timeout time.Duration) ([]recommend.ComponentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	query := req.Query + " for " + req.ProjectType
	matches, err := a.api.Search(ctx, a.collection, query, a.topK)
	if err != nil {
		return nil, fmt.Errorf("vector fetch: %w", err)
	}

	results := make([]recommend.ComponentResult, 0, len(matches))
	for _, m := range matches {
		attrs := make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			attrs[k] = v
		}

		results = append(results, recommend.ComponentResult{
			Name:       m.Name,
			Source:     sourceName,
			Confidence: recommend.Clamp01(1 - m.Distance),
			Attributes: attrs,
		})
	}
	return results, nil
}
