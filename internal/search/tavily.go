// Package search provides web search through the Tavily API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "https://api.tavily.com"
	defaultMaxResults = 5
	maxRetries        = 3
	retryBaseDelay    = 500 * time.Millisecond
)

// Result is one normalized search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Client calls the Tavily search API. Requests are rate limited and
// retried on throttling and server errors.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithMaxResults caps the number of results requested per search.
func WithMaxResults(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a Tavily client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		maxResults: defaultMaxResults,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// Tavily free tier allows roughly one request per second.
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// searchResponse tolerates the shapes Tavily has been observed to
// return: a plain string, a list of result objects, or a single object.
type searchResponse struct {
	Results json.RawMessage `json:"results"`
	Answer  string          `json:"answer"`
}

// Search runs a query and returns normalized results.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(searchRequest{
		APIKey:     c.apiKey,
		Query:      query,
		MaxResults: c.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}

	var raw []byte
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBaseDelay * time.Duration(1<<attempt)):
			}
		}

		raw, err = c.doSearch(ctx, body)
		if err == nil {
			break
		}
		if !isRetryable(err) {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}
	return normalizeResults(raw)
}

func (c *Client) doSearch(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("tavily: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{status: resp.StatusCode, body: string(data)}
	}
	return data, nil
}

type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("tavily: status %d: %s", e.status, e.body)
}

func isRetryable(err error) bool {
	var ae *apiError
	if !errors.As(err, &ae) {
		// Network errors are worth one more try.
		return true
	}
	return ae.status == http.StatusTooManyRequests || ae.status >= 500
}

// normalizeResults folds the three observed response shapes into one
// result list.
func normalizeResults(raw []byte) ([]Result, error) {
	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("tavily: decode response: %w", err)
	}
	if len(resp.Results) == 0 {
		if resp.Answer != "" {
			return []Result{{Content: resp.Answer}}, nil
		}
		return nil, nil
	}

	var list []Result
	if err := json.Unmarshal(resp.Results, &list); err == nil {
		return list, nil
	}
	var single Result
	if err := json.Unmarshal(resp.Results, &single); err == nil {
		return []Result{single}, nil
	}
	var text string
	if err := json.Unmarshal(resp.Results, &text); err == nil {
		return []Result{{Content: text}}, nil
	}
	return nil, fmt.Errorf("tavily: unrecognized results shape: %s", truncate(string(resp.Results), 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
