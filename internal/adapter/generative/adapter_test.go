package generative_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benchwise/toolrec/internal/adapter/generative"
	"github.com/benchwise/toolrec/internal/domain/recommend"
)

type fakeAPI struct {
	suggestion *generative.Suggestion
	err        error
	calls      int
}

func (f *fakeAPI) Suggest(_ context.Context, _ *recommend.Request) (*generative.Suggestion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.suggestion, nil
}

func price(v float64) *float64 { return &v }

func request() *recommend.Request {
	return &recommend.Request{
		Query:       "build a bookshelf",
		SkillLevel:  recommend.SkillBeginner,
		Budget:      500,
		Workspace:   "garage",
		ProjectType: "woodworking",
	}
}

func TestFetchSharesConfidenceAndReasoning(t *testing.T) {
	api := &fakeAPI{suggestion: &generative.Suggestion{
		Items: []generative.Item{
			{Name: "Circular Saw", EstimatedPrice: price(180), Difficulty: "intermediate"},
			{Name: "Clamp Set"},
		},
		Confidence: 0.75,
		Reasoning:  "A bookshelf needs straight cuts and glue-up pressure.",
	}}
	a := generative.NewAdapter(api)

	results, err := a.Fetch(context.Background(), request(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if api.calls != 1 {
		t.Fatalf("expected a single model call, got %d", api.calls)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Confidence != 0.75 {
			t.Errorf("%s: expected shared confidence 0.75, got %v", r.Name, r.Confidence)
		}
		if r.Attributes[recommend.AttrReasoning] != "A bookshelf needs straight cuts and glue-up pressure." {
			t.Errorf("%s: expected shared reasoning", r.Name)
		}
		if r.Source != "generative" {
			t.Errorf("%s: expected source generative, got %s", r.Name, r.Source)
		}
	}
}

func TestFetchClampsSelfReportedConfidence(t *testing.T) {
	api := &fakeAPI{suggestion: &generative.Suggestion{
		Items:      []generative.Item{{Name: "Drill"}},
		Confidence: 1.4,
	}}
	a := generative.NewAdapter(api)

	results, err := a.Fetch(context.Background(), request(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Confidence != 1.0 {
		t.Errorf("expected confidence clamped to 1.0, got %v", results[0].Confidence)
	}
}

func TestFetchSkipsUnnamedItems(t *testing.T) {
	api := &fakeAPI{suggestion: &generative.Suggestion{
		Items:      []generative.Item{{Name: ""}, {Name: "Drill"}},
		Confidence: 0.6,
	}}
	a := generative.NewAdapter(api)

	results, err := a.Fetch(context.Background(), request(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Name != "Drill" {
		t.Fatalf("expected only the named item, got %v", results)
	}
}

func TestFetchPropagatesModelError(t *testing.T) {
	api := &fakeAPI{err: errors.New("model unavailable")}
	a := generative.NewAdapter(api)

	if _, err := a.Fetch(context.Background(), request(), time.Second); err == nil {
		t.Fatal("expected error from failing model call")
	}
}
