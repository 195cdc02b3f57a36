// Package generative implements the source port against an OpenAI-compatible
// generative-model API. One completion call covers every recommended name
// for a request; the model self-reports a single confidence for the set.
package generative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/benchwise/toolrec/internal/domain/recommend"
	"github.com/benchwise/toolrec/internal/resilience"
)

// Item is one recommended tool inside a model suggestion.
type Item struct {
	Name           string   `json:"name"`
	Category       string   `json:"category,omitempty"`
	EstimatedPrice *float64 `json:"estimated_price,omitempty"`
	Difficulty     string   `json:"difficulty_level,omitempty"`
	SafetyRating   *float64 `json:"safety_rating,omitempty"`
}

// Suggestion is the parsed model output for one request.
type Suggestion struct {
	Items      []Item  `json:"recommendations"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// API is the subset of the generative backend consumed by the adapter.
type API interface {
	Suggest(ctx context.Context, req *recommend.Request) (*Suggestion, error)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new generative model client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// BreakerState reports the attached breaker's state, or "closed" when none
// is attached.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "closed"
	}
	return c.breaker.State()
}

// Suggest asks the model for tool recommendations in one completion call and
// parses the JSON content of the first choice.
func (c *Client) Suggest(ctx context.Context, req *recommend.Request) (*Suggestion, error) {
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": buildPrompt(req)},
		},
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/chat/completions", body)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp, &completion); err != nil {
		return nil, fmt.Errorf("unmarshal completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("suggest: empty completion")
	}

	var suggestion Suggestion
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &suggestion); err != nil {
		return nil, fmt.Errorf("parse suggestion content: %w", err)
	}
	return &suggestion, nil
}

const systemPrompt = `You are a workshop tool advisor. Respond with a JSON object:
{"recommendations":[{"name":...,"category":...,"estimated_price":...,"difficulty_level":...,"safety_rating":...}],"confidence":0.0-1.0,"reasoning":...}`

// buildPrompt summarizes the request for the model.
func buildPrompt(req *recommend.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\nProject type: %s\nWorkspace: %s\nSkill level: %s\nBudget: %.2f\n",
		req.Query, req.ProjectType, req.Workspace, req.SkillLevel, req.Budget)
	if len(req.SafetyRequirements) > 0 {
		fmt.Fprintf(&b, "Safety requirements: %s\n", strings.Join(req.SafetyRequirements, ", "))
	}
	if len(req.PreferredBrands) > 0 {
		fmt.Fprintf(&b, "Preferred brands: %s\n", strings.Join(req.PreferredBrands, ", "))
	}
	if len(req.ExistingTools) > 0 {
		fmt.Fprintf(&b, "Already owned: %s\n", strings.Join(req.ExistingTools, ", "))
	}
	if req.Timeline != "" {
		fmt.Fprintf(&b, "Timeline: %s\n", req.Timeline)
	}
	b.WriteString("Recommend the tools this project needs.")
	return b.String()
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("generative API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
