package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benchwise/toolrec/internal/domain/recommend"
	"github.com/benchwise/toolrec/internal/service"
)

// memStore is an in-memory cache port implementation for tests.
// TTLs are recorded but only enforced when expireNow is set.
type memStore struct {
	mu        sync.Mutex
	data      map[string][]byte
	getErr    error
	setErr    error
	sets      int
	expireNow bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	if m.expireNow {
		return nil, false, nil
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string][]byte)
	return nil
}

func staticResponse(id string) *recommend.Response {
	return &recommend.Response{
		ID:              id,
		Results:         []recommend.MergedCandidate{{Name: "Saw", Rank: 1}},
		TotalConfidence: 0.8,
	}
}

func TestKeyStableAcrossListOrder(t *testing.T) {
	c := service.NewResponseCache(newMemStore(), time.Minute, true)

	a := beginnerRequest()
	a.PreferredBrands = []string{"Makita", "Bosch"}
	b := beginnerRequest()
	b.PreferredBrands = []string{"Bosch", "Makita"}

	if c.Key(a, 10) != c.Key(b, 10) {
		t.Fatal("expected identical keys for reordered list fields")
	}
}

func TestKeyDistinguishesRequestsAndTopK(t *testing.T) {
	c := service.NewResponseCache(newMemStore(), time.Minute, true)

	a := beginnerRequest()
	b := beginnerRequest()
	b.Budget = 500

	if c.Key(a, 10) == c.Key(b, 10) {
		t.Fatal("expected different keys for different budgets")
	}
	if c.Key(a, 10) == c.Key(a, 5) {
		t.Fatal("expected different keys for different top-k")
	}
}

func TestKeyIgnoresTopKWhenDisabled(t *testing.T) {
	c := service.NewResponseCache(newMemStore(), time.Minute, false)
	a := beginnerRequest()
	if c.Key(a, 10) != c.Key(a, 5) {
		t.Fatal("expected top-k excluded from key")
	}
}

func TestGetOrComputeCachesAndReplays(t *testing.T) {
	store := newMemStore()
	c := service.NewResponseCache(store, time.Minute, true)
	ctx := context.Background()

	computes := 0
	compute := func(context.Context) (*recommend.Response, error) {
		computes++
		return staticResponse("r1"), nil
	}

	resp, fromCache, err := c.GetOrCompute(ctx, beginnerRequest(), 10, compute)
	if err != nil {
		t.Fatal(err)
	}
	if fromCache {
		t.Fatal("first call must not be from cache")
	}
	if resp.FromCache {
		t.Fatal("initiator's response must carry from_cache=false")
	}

	resp2, fromCache, err := c.GetOrCompute(ctx, beginnerRequest(), 10, compute)
	if err != nil {
		t.Fatal(err)
	}
	if !fromCache || !resp2.FromCache {
		t.Fatal("second call must be served from cache")
	}
	if computes != 1 {
		t.Fatalf("expected one computation, got %d", computes)
	}
	if resp2.ID != resp.ID || len(resp2.Results) != len(resp.Results) {
		t.Fatal("cached response must match the original")
	}
}

func TestSingleFlightCollapsesConcurrentCalls(t *testing.T) {
	store := newMemStore()
	c := service.NewResponseCache(store, time.Minute, true)

	var mu sync.Mutex
	computes := 0
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(context.Context) (*recommend.Response, error) {
		mu.Lock()
		computes++
		mu.Unlock()
		close(started)
		<-release
		return staticResponse("r1"), nil
	}

	type outcome struct {
		resp      *recommend.Response
		fromCache bool
		err       error
	}
	outcomes := make(chan outcome, 2)

	go func() {
		resp, fc, err := c.GetOrCompute(context.Background(), beginnerRequest(), 10, compute)
		outcomes <- outcome{resp, fc, err}
	}()
	<-started

	go func() {
		resp, fc, err := c.GetOrCompute(context.Background(), beginnerRequest(), 10, compute)
		outcomes <- outcome{resp, fc, err}
	}()
	// Give the joiner time to attach to the in-flight computation.
	time.Sleep(20 * time.Millisecond)
	close(release)

	a := <-outcomes
	b := <-outcomes
	if a.err != nil || b.err != nil {
		t.Fatalf("unexpected errors: %v %v", a.err, b.err)
	}
	if computes != 1 {
		t.Fatalf("expected one computation across concurrent calls, got %d", computes)
	}
	if a.fromCache == b.fromCache {
		t.Fatalf("expected exactly one initiator and one joiner, got %v/%v", a.fromCache, b.fromCache)
	}
	if a.resp.ID != b.resp.ID {
		t.Fatal("both callers must observe the same result")
	}
}

func TestComputeErrorIsNotCached(t *testing.T) {
	store := newMemStore()
	c := service.NewResponseCache(store, time.Minute, true)
	ctx := context.Background()

	calls := 0
	failing := func(context.Context) (*recommend.Response, error) {
		calls++
		return nil, errors.New("sources exploded")
	}

	if _, _, err := c.GetOrCompute(ctx, beginnerRequest(), 10, failing); err == nil {
		t.Fatal("expected compute error surfaced")
	}
	if store.sets != 0 {
		t.Fatal("failed computation must not populate the cache")
	}

	// A later call retries the computation.
	if _, _, err := c.GetOrCompute(ctx, beginnerRequest(), 10, failing); err == nil {
		t.Fatal("expected compute error surfaced again")
	}
	if calls != 2 {
		t.Fatalf("expected 2 compute attempts, got %d", calls)
	}
}

func TestCancelledComputeDoesNotPopulateCache(t *testing.T) {
	store := newMemStore()
	c := service.NewResponseCache(store, time.Minute, true)

	ctx, cancel := context.WithCancel(context.Background())
	compute := func(ctx context.Context) (*recommend.Response, error) {
		cancel()
		return staticResponse("r1"), nil
	}

	if _, _, err := c.GetOrCompute(ctx, beginnerRequest(), 10, compute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.sets != 0 {
		t.Fatal("cancelled computation must not populate the cache")
	}
}

func TestCacheErrorsFailOpen(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("backend wedged")
	store.setErr = errors.New("backend wedged")
	c := service.NewResponseCache(store, time.Minute, true)

	computes := 0
	compute := func(context.Context) (*recommend.Response, error) {
		computes++
		return staticResponse("r1"), nil
	}

	resp, fromCache, err := c.GetOrCompute(context.Background(), beginnerRequest(), 10, compute)
	if err != nil {
		t.Fatalf("cache failure must not fail the call: %v", err)
	}
	if fromCache || resp == nil {
		t.Fatal("expected a freshly computed response")
	}
	if computes != 1 {
		t.Fatalf("expected one computation, got %d", computes)
	}
}

func TestInvalidateDropsEntry(t *testing.T) {
	store := newMemStore()
	c := service.NewResponseCache(store, time.Minute, true)
	ctx := context.Background()

	computes := 0
	compute := func(context.Context) (*recommend.Response, error) {
		computes++
		return staticResponse("r1"), nil
	}

	if _, _, err := c.GetOrCompute(ctx, beginnerRequest(), 10, compute); err != nil {
		t.Fatal(err)
	}
	if err := c.Invalidate(ctx, beginnerRequest(), 10); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.GetOrCompute(ctx, beginnerRequest(), 10, compute); err != nil {
		t.Fatal(err)
	}
	if computes != 2 {
		t.Fatalf("expected recomputation after invalidation, got %d computes", computes)
	}
}
