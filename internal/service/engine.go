package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/benchwise/toolrec/internal/domain/recommend"
	"github.com/benchwise/toolrec/internal/port/source"
)

// EngineService fans a request out to every configured source adapter
// concurrently and collects whatever came back. A source that errors or
// times out becomes a recorded failure, not an error — unless every source
// fails.
type EngineService struct {
	adapters []source.Adapter
	timeout  time.Duration
	sem      *semaphore.Weighted
}

// NewEngineService creates an EngineService. timeout bounds each adapter
// call independently. maxParallel caps concurrent fetches; 0 means one
// worker per adapter.
func NewEngineService(adapters []source.Adapter, timeout time.Duration, maxParallel int) *EngineService {
	if maxParallel < 1 || maxParallel > len(adapters) {
		maxParallel = len(adapters)
	}
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &EngineService{
		adapters: adapters,
		timeout:  timeout,
		sem:      semaphore.NewWeighted(int64(maxParallel)),
	}
}

// FetchAll issues one bounded call per adapter and joins them all. The
// returned slice holds every successful adapter's candidates in adapter
// registration order, so the output does not depend on completion order.
// Returns ErrAllSourcesFailed when no adapter succeeds, or the context
// error when the caller cancelled.
func (s *EngineService) FetchAll(ctx context.Context, req *recommend.Request) ([]recommend.ComponentResult, []recommend.SourceFailure, error) {
	type slot struct {
		results []recommend.ComponentResult
		err     error
	}
	slots := make([]slot, len(s.adapters))

	var wg sync.WaitGroup
	for i, a := range s.adapters {
		wg.Add(1)
		go func(i int, a source.Adapter) {
			defer wg.Done()
			if err := s.sem.Acquire(ctx, 1); err != nil {
				slots[i].err = err
				return
			}
			defer s.sem.Release(1)
			slots[i].results, slots[i].err = a.Fetch(ctx, req, s.timeout)
		}(i, a)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var results []recommend.ComponentResult
	var failures []recommend.SourceFailure
	for i, a := range s.adapters {
		if slots[i].err != nil {
			slog.Warn("source fetch failed",
				"component", a.Name(),
				"error", slots[i].err,
			)
			failures = append(failures, recommend.SourceFailure{
				Component: a.Name(),
				Reason:    slots[i].err.Error(),
			})
			continue
		}
		results = append(results, slots[i].results...)
	}

	if len(failures) == len(s.adapters) {
		return nil, failures, recommend.ErrAllSourcesFailed
	}
	return results, failures, nil
}
