// Package source defines the candidate source port (interface) and its
// factory registry.
package source

import (
	"context"
	"time"

	"github.com/benchwise/toolrec/internal/domain/recommend"
)

// Adapter is the port interface for one recommendation backend. An adapter
// fetches raw scored candidates for a request, bounding the backend call by
// the given timeout. Errors (including timeouts) are returned, never
// panicked; the engine converts them into per-component warnings.
type Adapter interface {
	// Name returns the component identifier for this source
	// (e.g. "graph", "vector", "generative"). It must match the key
	// used in the configured scoring weights.
	Name() string

	// Fetch returns the raw scored candidates this source produces for
	// the request. Every returned confidence must lie in [0,1].
	Fetch(ctx context.Context, req *recommend.Request, timeout time.Duration) ([]recommend.ComponentResult, error)
}

// HealthReporter is optionally implemented by adapters whose backend client
// carries a circuit breaker. The health endpoint surfaces the state.
type HealthReporter interface {
	BreakerState() string
}
