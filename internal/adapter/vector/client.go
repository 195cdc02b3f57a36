// Package vector implements the source port against the vector-similarity
// store. Nearest-neighbor distance converts directly into confidence.
package vector

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

// Match is one nearest-neighbor hit from the vector store. Distance is
// normalized by the store to [0,1], where 0 is an exact match.
type Match struct {
	Name     string         `json:"name"`
	Distance float64        `json:"distance"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// API is the subset of the vector store consumed by the adapter.
type API interface {
	Search(ctx context.Context, collection, query string, topK int) ([]Match, error)
}

// Client talks to the vector store's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new vector store client.
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

// Search runs a semantic nearest-neighbor search over the given collection.
func (c *Client) Search(ctx context.Context, collection, query string, topK int) ([]Match, error) {
	body, err := json.Marshal(map[string]any{
		"collection": collection,
		"query":      query,
		"top_k":      topK,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/search", body)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var result struct {
		Matches []Match `json:"matches"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("unmarshal search: %w", err)
	}
	return result.Matches, nil
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
			return fmt.Errorf("vector API error %d: %s", resp.StatusCode, string(data))
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
