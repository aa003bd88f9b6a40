// Package router classifies user messages into tool intents using a small,
// fast model, with heuristic short-circuits for obvious cases.
package router

import (
	"context"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashishjangde/gen-ai-bot/internal/llm"
	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
	"github.com/ashishjangde/gen-ai-bot/pkg/observability"
)

// Intent identifies which retrieval path a message needs.
type Intent string

const (
	IntentWebSearch     Intent = "web_search"
	IntentRAGSearch     Intent = "rag_search"
	IntentFinancialData Intent = "financial_data"
	IntentMemoryRecall  Intent = "memory_recall"
	IntentDirectAnswer  Intent = "direct_answer"
)

// memoryOverrides short-circuits classification for messages that are
// unambiguously about the user's own past.
var memoryOverrides = []string{
	"my name",
	"who am i",
	"what did i say",
	"do you remember",
	"my favorite",
}

const classifierPrompt = `You are an intent classifier for a ChatGPT-like assistant.

Your job is to analyze the user's message and determine what action is needed.
You can select MULTIPLE intents if needed, separated by commas.
Available intents:

- web_search: User needs current/real-time information from the internet
  Examples: "What's the weather today?", "Latest news about AI", "Who won the game yesterday?"

- rag_search: User is asking about content from their uploaded documents/files
  Examples: "What does my PDF say about X?", "Summarize the document I uploaded", "Find in my files..."
  NOTE: Use this intent if the user asks "from the file", "from the pdf", or asks specifically about uploaded content.

- financial_data: User is asking for stock prices, market data, or financial information for a specific company/ticker.
  Examples: "Price of TCS", "How is Apple stock doing?", "Tesla stock price", "Market cap of Nvidia"

- memory_recall: User is referencing their preferences, past conversations, or personal facts
  Examples: "Remember I told you...", "What's my favorite...?", "You said earlier that...", "What is my name?", "Who am I?"
  NOTE: Use this intent if the user asks personal questions about themselves or past context.

- direct_answer: General knowledge, greetings, or questions you can answer without external tools
  Examples: "Hello", "What is Python?", "Explain quantum physics", "Write a poem"

Consider the conversation history and available context when making your decision.

Do not over-trigger tools. Only select multiple if distinctly required.
Respond with the intent keyword(s), separated by comma, nothing else.`

// Router classifies messages into intents.
type Router struct {
	client llm.Client
	model  string
}

// New creates a Router backed by the given classifier model.
func New(client llm.Client, model string) *Router {
	return &Router{client: client, model: model}
}

// Classify determines the intents for a message. Classification never fails
// the turn: any model error degrades to a direct answer.
func (r *Router) Classify(ctx context.Context, message string, history []memory.Entry, hasFiles bool) []Intent {
	ctx, span := observability.StartSpan(ctx, "router.classify")
	defer span.End()

	if intents, ok := heuristicIntents(message); ok {
		log.Printf("[Router] heuristic override -> %v", intents)
		span.SetAttributes(attribute.Bool("router.heuristic", true))
		setIntentAttributes(span, intents)
		return intents
	}

	resp, err := r.client.Complete(ctx, llm.Request{
		Model:       r.model,
		Messages:    r.buildMessages(message, history, hasFiles),
		Temperature: 0,
		MaxTokens:   20,
	})
	if err != nil {
		log.Printf("[Router] classification failed, defaulting to direct answer: %v", err)
		span.RecordError(err)
		return []Intent{IntentDirectAnswer}
	}

	intents := parseIntents(resp.Content, message, hasFiles)
	log.Printf("[Router] %q -> %v", truncate(message, 30), intents)
	setIntentAttributes(span, intents)
	return intents
}

func (r *Router) buildMessages(message string, history []memory.Entry, hasFiles bool) []llm.Message {
	system := classifierPrompt
	if hasFiles {
		system += "\n\nCONTEXT: User HAS uploaded files/documents for this session."
	} else {
		system += "\n\nCONTEXT: User has NOT uploaded any files (do not choose rag_search unless user explicitly asks to check files)."
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: system}}

	// Only the last few user turns matter for disambiguation.
	start := len(history) - 3
	if start < 0 {
		start = 0
	}
	for _, entry := range history[start:] {
		if entry.Role == llm.RoleUser {
			messages = append(messages, llm.Message{
				Role:    llm.RoleUser,
				Content: fmt.Sprintf("[Previous] %s", entry.Content),
			})
		}
	}

	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("[Current] %s", message),
	})
	return messages
}

func heuristicIntents(message string) ([]Intent, bool) {
	lower := strings.ToLower(message)
	for _, phrase := range memoryOverrides {
		if strings.Contains(lower, phrase) {
			return []Intent{IntentMemoryRecall}, true
		}
	}
	return nil, false
}

// parseIntents extracts known intent keywords from the raw model output.
// Matching is substring-based per comma-separated part, so decorated output
// like "intent: web_search" still parses.
func parseIntents(raw, message string, hasFiles bool) []Intent {
	lower := strings.ToLower(strings.TrimSpace(raw))

	var detected []Intent
	seen := make(map[Intent]bool)
	add := func(intent Intent) {
		if !seen[intent] {
			seen[intent] = true
			detected = append(detected, intent)
		}
	}

	for _, part := range strings.Split(lower, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.Contains(part, string(IntentWebSearch)):
			add(IntentWebSearch)
		case strings.Contains(part, string(IntentRAGSearch)):
			add(IntentRAGSearch)
		case strings.Contains(part, string(IntentFinancialData)):
			add(IntentFinancialData)
		case strings.Contains(part, string(IntentMemoryRecall)):
			add(IntentMemoryRecall)
		}
	}

	if len(detected) == 0 {
		msgLower := strings.ToLower(message)
		mentionsFiles := strings.Contains(msgLower, "file") || strings.Contains(msgLower, "pdf")
		if hasFiles && mentionsFiles {
			return []Intent{IntentRAGSearch}
		}
		return []Intent{IntentDirectAnswer}
	}
	return detected
}

func setIntentAttributes(span trace.Span, intents []Intent) {
	names := make([]string, len(intents))
	for i, intent := range intents {
		names[i] = string(intent)
	}
	span.SetAttributes(attribute.StringSlice("router.intents", names))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
