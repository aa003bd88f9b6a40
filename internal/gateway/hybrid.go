package gateway

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// HybridSearcher queries the web and the user's documents together.
type HybridSearcher struct {
	web  *WebSearcher
	docs *DocumentGateway
}

// NewHybridSearcher combines a web searcher and a document gateway.
func NewHybridSearcher(web *WebSearcher, docs *DocumentGateway) *HybridSearcher {
	return &HybridSearcher{web: web, docs: docs}
}

// Search runs both backends concurrently and interleaves the results,
// document hits first, so user context outranks the open web.
func (h *HybridSearcher) Search(ctx context.Context, userID, sessionID, query string) ([]Result, error) {
	var webResults, ragResults []Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := h.web.Search(gctx, query)
		if err != nil {
			return fmt.Errorf("web: %w", err)
		}
		webResults = results
		return nil
	})
	g.Go(func() error {
		results, err := h.docs.Search(gctx, userID, sessionID, query)
		if err != nil {
			return fmt.Errorf("documents: %w", err)
		}
		ragResults = results
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := make([]Result, 0, len(webResults)+len(ragResults))
	for i := 0; i < len(ragResults) || i < len(webResults); i++ {
		if i < len(ragResults) {
			combined = append(combined, ragResults[i])
		}
		if i < len(webResults) {
			combined = append(combined, webResults[i])
		}
	}
	return combined, nil
}
