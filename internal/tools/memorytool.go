package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
)

const (
	factRecallLimit    = 3
	historyRecallLimit = 5
)

// MemoryHandler recalls stored facts and relevant past exchanges.
type MemoryHandler struct {
	ltm *memory.LongTermStore
}

// NewMemoryHandler wraps the long-term store as an intent handler.
func NewMemoryHandler(ltm *memory.LongTermStore) *MemoryHandler {
	return &MemoryHandler{ltm: ltm}
}

func (h *MemoryHandler) Name() string { return "memory_recall" }

// Execute searches facts and history independently. Either source failing
// only drops its own category.
func (h *MemoryHandler) Execute(ctx context.Context, q Query) (PartialResult, error) {
	result := make(PartialResult)

	facts, factErr := h.ltm.SearchFacts(ctx, q.UserID, q.Text, factRecallLimit)
	for _, f := range facts {
		result["memory"] = append(result["memory"], ResultItem{
			Category: "memory",
			Content:  f.Content,
			Score:    f.Score,
		})
	}

	matches, histErr := h.ltm.SearchHistory(ctx, q.UserID, q.Text, historyRecallLimit)
	for _, m := range matches {
		result["history_matches"] = append(result["history_matches"], ResultItem{
			Category: "history_matches",
			Content:  fmt.Sprintf("[%s] %s", strings.ToUpper(m.Role), m.Content),
			Score:    m.Score,
		})
	}

	if factErr != nil && histErr != nil {
		return nil, fmt.Errorf("memory recall: facts: %v, history: %v", factErr, histErr)
	}
	return result, nil
}
