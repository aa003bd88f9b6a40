package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.APIKey != "test-key" {
			t.Errorf("unexpected api key: %q", req.APIKey)
		}
		if req.MaxResults != 7 {
			t.Errorf("unexpected max results: %d", req.MaxResults)
		}
		if !req.IncludeAnswer {
			t.Error("expected include_answer to be set")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer": "Go is a programming language.",
			"results": []map[string]any{
				{"title": "The Go Programming Language", "url": "https://go.dev", "content": "Build simple systems", "score": 0.91},
				{"title": "Go wiki", "url": "https://en.wikipedia.org/wiki/Go", "content": "Go article", "score": 0.72},
			},
		})
	}))
	defer server.Close()

	ws, err := NewWebSearcher(WebSearcherOptions{APIKey: "test-key", Endpoint: server.URL})
	if err != nil {
		t.Fatalf("NewWebSearcher: %v", err)
	}

	results, err := ws.Search(context.Background(), "what is go")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Title != "AI Summary" || results[0].Score != 1.0 {
		t.Errorf("expected synthesized answer first, got %+v", results[0])
	}
	if results[1].Source != "https://go.dev" || results[1].Score != 0.91 {
		t.Errorf("unexpected second result: %+v", results[1])
	}
}

func TestWebSearchNoAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Result", "url": "https://example.com", "content": "text", "score": 0.5},
			},
		})
	}))
	defer server.Close()

	ws, _ := NewWebSearcher(WebSearcherOptions{APIKey: "k", Endpoint: server.URL})
	results, err := ws.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Result" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestWebSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	ws, _ := NewWebSearcher(WebSearcherOptions{APIKey: "bad", Endpoint: server.URL})
	if _, err := ws.Search(context.Background(), "query"); err == nil {
		t.Error("expected error for API failure")
	}
}

func TestWebSearchValidation(t *testing.T) {
	if _, err := NewWebSearcher(WebSearcherOptions{}); err == nil {
		t.Error("expected error for missing API key")
	}

	ws, _ := NewWebSearcher(WebSearcherOptions{APIKey: "k"})
	if _, err := ws.Search(context.Background(), ""); err == nil {
		t.Error("expected error for empty query")
	}
}
