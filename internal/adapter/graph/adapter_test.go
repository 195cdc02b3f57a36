package graph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benchwise/toolrec/internal/adapter/graph"
	"github.com/benchwise/toolrec/internal/domain/recommend"
)

type fakeAPI struct {
	tools []graph.Tool
	err   error
	ctx   context.Context
}

func (f *fakeAPI) RelatedTools(ctx context.Context, _, _ string, _ int) ([]graph.Tool, error) {
	f.ctx = ctx
	if f.err != nil {
		return nil, f.err
	}
	return f.tools, nil
}

func price(v float64) *float64 { return &v }

func request(level recommend.SkillLevel) *recommend.Request {
	return &recommend.Request{
		Query:       "build a bookshelf",
		SkillLevel:  level,
		Budget:      500,
		Workspace:   "garage",
		ProjectType: "woodworking",
	}
}

func TestFetchScoresByNormalizedRating(t *testing.T) {
	api := &fakeAPI{tools: []graph.Tool{
		{Name: "Circular Saw", Rating: 4.0, Price: price(199.99), Difficulty: "intermediate"},
	}}
	a := graph.NewAdapter(api, 5.0, 20)

	results, err := a.Fetch(context.Background(), request(recommend.SkillIntermediate), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Source != "graph" {
		t.Errorf("expected source graph, got %s", r.Source)
	}
	// 4.0/5.0 * 1.0 multiplier
	if r.Confidence != 0.8 {
		t.Errorf("expected confidence 0.8, got %v", r.Confidence)
	}
	if p, ok := r.Attributes[recommend.AttrPrice]; !ok || p != 199.99 {
		t.Errorf("expected price 199.99, got %v", p)
	}
}

func TestSkillMultiplierAppliedAndClamped(t *testing.T) {
	api := &fakeAPI{tools: []graph.Tool{
		{Name: "Drill", Rating: 5.0},
		{Name: "Sander", Rating: 2.5},
	}}
	a := graph.NewAdapter(api, 5.0, 20)

	// Beginner: 0.8 multiplier.
	results, err := a.Fetch(context.Background(), request(recommend.SkillBeginner), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got := results[0].Confidence; got != 0.8 {
		t.Errorf("beginner drill: expected 0.8, got %v", got)
	}
	if got := results[1].Confidence; got != 0.4 {
		t.Errorf("beginner sander: expected 0.4, got %v", got)
	}

	// Advanced: 1.2 multiplier, clamped to 1.0 at the top.
	results, err = a.Fetch(context.Background(), request(recommend.SkillAdvanced), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got := results[0].Confidence; got != 1.0 {
		t.Errorf("advanced drill: expected clamp to 1.0, got %v", got)
	}
	if got := results[1].Confidence; got != 0.6 {
		t.Errorf("advanced sander: expected 0.6, got %v", got)
	}
}

func TestFetchPropagatesBackendError(t *testing.T) {
	api := &fakeAPI{err: errors.New("graph store down")}
	a := graph.NewAdapter(api, 5.0, 20)

	if _, err := a.Fetch(context.Background(), request(recommend.SkillBeginner), time.Second); err == nil {
		t.Fatal("expected error from failing backend")
	}
}

func TestFetchBoundsCallByTimeout(t *testing.T) {
	api := &fakeAPI{}
	a := graph.NewAdapter(api, 5.0, 20)

	if _, err := a.Fetch(context.Background(), request(recommend.SkillBeginner), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := api.ctx.Deadline(); !ok {
		t.Fatal("expected a deadline on the backend call context")
	}
}
