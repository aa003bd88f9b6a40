package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	tavilyEndpoint      = "https://api.tavily.com/search"
	defaultSearchLimit  = 7
	defaultSearchDepth  = "basic"
	webRequestTimeout   = 20 * time.Second
	searchRatePerSecond = 2
)

// WebSearcher performs web search through the Tavily API.
type WebSearcher struct {
	apiKey   string
	endpoint string
	limit    int
	client   *http.Client
	limiter  *rate.Limiter
}

// WebSearcherOptions configures a WebSearcher.
type WebSearcherOptions struct {
	APIKey   string
	Endpoint string

	// MaxResults caps results per query (default 7).
	MaxResults int
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float32 `json:"score"`
	} `json:"results"`
}

// NewWebSearcher creates a Tavily-backed web searcher.
func NewWebSearcher(opts WebSearcherOptions) (*WebSearcher, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("tavily API key is required")
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = tavilyEndpoint
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	return &WebSearcher{
		apiKey:   opts.APIKey,
		endpoint: endpoint,
		limit:    limit,
		client:   &http.Client{Timeout: webRequestTimeout},
		limiter:  rate.NewLimiter(rate.Limit(searchRatePerSecond), searchRatePerSecond),
	}, nil
}

// Search runs a web search. When the API returns a synthesized answer it is
// prepended as an "AI Summary" result with the top score.
func (w *WebSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:        w.apiKey,
		Query:         query,
		MaxResults:    w.limit,
		SearchDepth:   defaultSearchDepth,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results)+1)
	if parsed.Answer != "" {
		results = append(results, Result{
			Content: parsed.Answer,
			Title:   "AI Summary",
			Score:   1.0,
		})
	}
	for _, r := range parsed.Results {
		results = append(results, Result{
			Content: r.Content,
			Source:  r.URL,
			Title:   r.Title,
			Score:   r.Score,
		})
	}
	return results, nil
}
