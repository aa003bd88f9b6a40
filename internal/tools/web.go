package tools

import (
	"context"
	"fmt"

	"github.com/ashishjangde/gen-ai-bot/internal/gateway"
)

// WebHandler retrieves web search results.
type WebHandler struct {
	searcher *gateway.WebSearcher
}

// NewWebHandler wraps a web searcher as an intent handler.
func NewWebHandler(searcher *gateway.WebSearcher) *WebHandler {
	return &WebHandler{searcher: searcher}
}

func (h *WebHandler) Name() string { return "web_search" }

func (h *WebHandler) Execute(ctx context.Context, q Query) (PartialResult, error) {
	results, err := h.searcher.Search(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	items := make([]ResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, ResultItem{
			Category: "web",
			Content:  r.Content,
			Source:   r.Source,
			Title:    r.Title,
			Favicon:  FaviconURL(r.Source),
			Score:    r.Score,
		})
	}
	return PartialResult{"web": items}, nil
}
