package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHybridInterleavesDocumentsFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Web A", "url": "https://a.example", "content": "monthly report coverage", "score": 0.9},
				{"title": "Web B", "url": "https://b.example", "content": "monthly report coverage", "score": 0.8},
			},
		})
	}))
	defer server.Close()

	ws, _ := NewWebSearcher(WebSearcherOptions{APIKey: "k", Endpoint: server.URL})
	dg := newDocGateway(t)
	_ = dg.AddTexts(context.Background(), "alice", "s1", []string{"monthly report coverage"})

	hs := NewHybridSearcher(ws, dg)
	results, err := hs.Search(context.Background(), "alice", "s1", "monthly report coverage")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 combined results, got %d", len(results))
	}
	if results[0].Source != "document" {
		t.Errorf("expected document hit first, got %+v", results[0])
	}
	if results[1].Title != "Web A" || results[2].Title != "Web B" {
		t.Errorf("unexpected interleave: %+v", results[1:])
	}
}
