// Package graph implements the source port against the relationship-graph
// store. Items related to the requested project type carry an intrinsic
// community rating which the adapter converts into a confidence score.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/benchwise/toolrec/internal/resilience"
)

// Tool is one item returned by the graph store's related-tools query.
type Tool struct {
	Name         string   `json:"name"`
	Rating       float64  `json:"rating"`
	Category     string   `json:"category,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Difficulty   string   `json:"difficulty_level,omitempty"`
	SafetyRating *float64 `json:"safety_rating,omitempty"`
}

// API is the subset of the graph store consumed by the adapter.
type API interface {
	RelatedTools(ctx context.Context, projectType, query string, limit int) ([]Tool, error)
}

// Client talks to the relationship-graph store's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new graph store client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
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

// RelatedTools queries the graph for tools connected to the given project
// type, ranked by relationship strength.
func (c *Client) RelatedTools(ctx context.Context, projectType, query string, limit int) ([]Tool, error) {
	body, err := json.Marshal(map[string]any{
		"project_type": projectType,
		"query":        query,
		"limit":        limit,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal related tools: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/tools/related", body)
	if err != nil {
		return nil, fmt.Errorf("related tools: %w", err)
	}

	var result struct {
		Tools []Tool `json:"tools"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("unmarshal related tools: %w", err)
	}
	return result.Tools, nil
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
			return fmt.Errorf("graph API error %d: %s", resp.StatusCode, string(data))
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
