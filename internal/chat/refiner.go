package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ashishjangde/gen-ai-bot/internal/llm"
	"github.com/ashishjangde/gen-ai-bot/pkg/observability"
)

const refinerSystemPrompt = `You are an expert Prompt Engineer.
Your goal is to optimize the user's query for a Large Language Model to ensure the best possible answer.

Instructions:
1. Make the query more specific, detailed, and clear.
2. Fix any grammar or ambiguity.
3. If there is context (e.g. search results), explicitly mention it in the prompt instructions.
4. KEEP the original intent exactly the same. Do not answer the question yourself.

CRITICAL: Output ONLY the rewritten prompt text. Do NOT add "Here is the refined prompt" or any explanation.
Do NOT use quotes around the output. Just the raw text.`

// Refiner rewrites the user's query with a cheap model before generation.
type Refiner struct {
	client llm.Client
	model  string
}

// NewRefiner creates a Refiner using the given model.
func NewRefiner(client llm.Client, model string) *Refiner {
	return &Refiner{client: client, model: model}
}

// Refine returns the optimized query. Any failure or empty rewrite falls
// back to the original text.
func (r *Refiner) Refine(ctx context.Context, original string) string {
	ctx, span := observability.StartSpan(ctx, "chat.refine")
	defer span.End()

	resp, err := r.client.Complete(ctx, llm.Request{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: refinerSystemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Rewrite this query: %s", original)},
		},
		Temperature: 0.3,
		MaxTokens:   300,
	})
	if err != nil {
		log.Printf("[Refiner] refinement failed, using original: %v", err)
		span.RecordError(err)
		return original
	}

	refined := strings.TrimSpace(resp.Content)
	if refined == "" {
		return original
	}
	return refined
}
