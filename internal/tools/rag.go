package tools

import (
	"context"
	"fmt"

	"github.com/ashishjangde/gen-ai-bot/internal/gateway"
)

// documentFavicon is the generic icon shown for document hits.
const documentFavicon = "https://www.google.com/s2/favicons?domain=adobe.com"

// RAGHandler retrieves chunks from the user's uploaded documents.
type RAGHandler struct {
	docs *gateway.DocumentGateway
}

// NewRAGHandler wraps the document gateway as an intent handler.
func NewRAGHandler(docs *gateway.DocumentGateway) *RAGHandler {
	return &RAGHandler{docs: docs}
}

func (h *RAGHandler) Name() string { return "rag_search" }

func (h *RAGHandler) Execute(ctx context.Context, q Query) (PartialResult, error) {
	results, err := h.docs.Search(ctx, q.UserID, q.SessionID, q.Text)
	if err != nil {
		return nil, fmt.Errorf("document search: %w", err)
	}

	items := make([]ResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, ResultItem{
			Category: "rag",
			Content:  r.Content,
			Source:   r.Source,
			Title:    r.Title,
			Favicon:  documentFavicon,
			Score:    r.Score,
		})
	}
	return PartialResult{"rag": items}, nil
}
