package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ashishjangde/gen-ai-bot/internal/llm"
	"github.com/ashishjangde/gen-ai-bot/pkg/observability"
)

// fallbackMessage replaces the answer when generation cannot start.
const fallbackMessage = "I apologize, but I encountered an error. Please try again."

// Generator streams the final answer from the main model.
type Generator struct {
	client      llm.Client
	model       string
	temperature float32
	maxTokens   int
	persona     string
}

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int

	// Persona is the base system prompt before summary and context are
	// appended.
	Persona string
}

// NewGenerator creates a Generator.
func NewGenerator(client llm.Client, opts GeneratorOptions) *Generator {
	return &Generator{
		client:      client,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		persona:     opts.Persona,
	}
}

// Generate streams the answer, calling emit for every token and a final
// usage report. It returns the accumulated text, which may be partial if
// the stream broke or the context was cancelled mid-way. When the stream
// cannot be opened at all, the fallback message is emitted and returned.
func (g *Generator) Generate(ctx context.Context, state *turnState, emit func(Event) bool) string {
	ctx, span := observability.StartSpan(ctx, "chat.generate")
	defer span.End()

	stream, err := g.client.StreamCompletion(ctx, llm.Request{
		Model:       g.model,
		Messages:    g.buildMessages(state),
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		log.Printf("[Generator] failed to open stream: %v", err)
		span.RecordError(err)
		observability.RecordLLMRequest(g.model, "generate", "error")
		emit(Event{Type: EventToken, Token: fallbackMessage})
		return fallbackMessage
	}
	defer func() { _ = stream.Close() }()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if err != nil {
			// Mid-stream failure: keep what was produced.
			log.Printf("[Generator] stream broke after %d chars: %v", sb.Len(), err)
			span.RecordError(err)
			observability.RecordLLMRequest(g.model, "generate", "error")
			return sb.String()
		}

		if chunk.Delta != "" {
			sb.WriteString(chunk.Delta)
			observability.RecordStreamToken()
			if !emit(Event{Type: EventToken, Token: chunk.Delta}) {
				// Caller disconnected; stop generating, return the partial.
				return sb.String()
			}
		}
		if chunk.Usage != nil {
			observability.RecordLLMTokens(g.model, chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens)
			emit(Event{Type: EventUsage, Usage: chunk.Usage})
		}
		if chunk.Done {
			break
		}
	}

	observability.RecordLLMRequest(g.model, "generate", "ok")
	return sb.String()
}

func (g *Generator) buildMessages(state *turnState) []llm.Message {
	system := g.persona
	if state.summary != "" {
		system += fmt.Sprintf("\n\nPREVIOUS CONVERSATION SUMMARY:\n%s", state.summary)
	}
	if state.context != "" {
		system += fmt.Sprintf("\n\nCONTEXT (this information is retrieved from tools):\n%s", state.context)
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: system}}

	history := state.history
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, e := range history {
		role := llm.RoleAssistant
		if e.Role == memoryRoleUser {
			role = llm.RoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: e.Content})
	}

	if state.refined != "" && state.refined != state.req.Message {
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("[Original Query: %s]\n[Optimized Query]: %s", state.req.Message, state.refined),
		})
	} else {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: state.req.Message})
	}
	return messages
}

const memoryRoleUser = "user"
