package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/ashishjangde/gen-ai-bot/internal/llm"
	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
	"github.com/ashishjangde/gen-ai-bot/pkg/observability"
)

// summaryInputLimit caps the rendered conversation fed to the summarizer.
// Older text is cut first.
const summaryInputLimit = 6000

// Summarizer compresses a session's window into a rolling summary once the
// window crosses the threshold.
type Summarizer struct {
	client    llm.Client
	model     string
	stm       *memory.ShortTermStore
	threshold int
}

// NewSummarizer creates a Summarizer. threshold <= 0 defaults to 10.
func NewSummarizer(client llm.Client, model string, stm *memory.ShortTermStore, threshold int) *Summarizer {
	if threshold <= 0 {
		threshold = 10
	}
	return &Summarizer{client: client, model: model, stm: stm, threshold: threshold}
}

// MaybeSummarize regenerates the summary when the window has reached the
// threshold. Failures leave the previous summary in place.
func (s *Summarizer) MaybeSummarize(ctx context.Context, sessionID string) {
	length, err := s.stm.Len(ctx, sessionID)
	if err != nil {
		log.Printf("[Summarizer] length check failed for %s: %v", sessionID, err)
		return
	}
	if length < s.threshold {
		return
	}

	if err := s.summarize(ctx, sessionID); err != nil {
		log.Printf("[Summarizer] summarization failed for %s: %v", sessionID, err)
		observability.RecordSummarization("error")
		return
	}
	observability.RecordSummarization("ok")
}

func (s *Summarizer) summarize(ctx context.Context, sessionID string) error {
	ctx, span := observability.StartSpan(ctx, "chat.summarize")
	defer span.End()

	history, err := s.stm.Recent(ctx, sessionID, 0)
	if err != nil {
		return fmt.Errorf("failed to read window: %w", err)
	}
	if len(history) == 0 {
		return nil
	}

	lines := make([]string, len(history))
	for i, e := range history {
		lines[i] = fmt.Sprintf("%s: %s", strings.ToUpper(e.Role), e.Content)
	}
	block := strings.Join(lines, "\n")
	if len(block) > summaryInputLimit {
		cut := len(block) - summaryInputLimit
		// The byte cut can land inside a rune; move forward to the next
		// boundary so the model sees valid UTF-8.
		for cut < len(block) && !utf8.RuneStart(block[cut]) {
			cut++
		}
		block = block[cut:]
	}

	resp, err := s.client.Complete(ctx, llm.Request{
		Model: s.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You are a helpful conversation summarizer."},
			{Role: llm.RoleUser, Content: "Summarize the following conversation in 3-4 concise sentences, capturing key facts and user intent:\n\n" + block},
		},
	})
	if err != nil {
		return fmt.Errorf("summary generation: %w", err)
	}

	summary := strings.TrimSpace(resp.Content)
	if summary == "" {
		return fmt.Errorf("model returned an empty summary")
	}
	if err := s.stm.SetSummary(ctx, sessionID, summary); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	log.Printf("[Summarizer] session %s summarized (%d chars)", sessionID, len(summary))
	return nil
}
