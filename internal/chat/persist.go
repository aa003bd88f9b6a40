package chat

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
	"github.com/ashishjangde/gen-ai-bot/pkg/observability"
)

// Coordinator persists a finished turn in the background. Every step fails
// soft: a broken backend loses that tier's write, never the others.
type Coordinator struct {
	stm        *memory.ShortTermStore
	ltm        *memory.LongTermStore
	summarizer *Summarizer

	wg sync.WaitGroup
}

// NewCoordinator builds a persistence coordinator.
func NewCoordinator(stm *memory.ShortTermStore, ltm *memory.LongTermStore, summarizer *Summarizer) *Coordinator {
	return &Coordinator{stm: stm, ltm: ltm, summarizer: summarizer}
}

// PersistAsync runs PersistTurn in the background on a context detached from
// the request, so persistence survives a client disconnect.
func (c *Coordinator) PersistAsync(ctx context.Context, rec TurnRecord) {
	bg := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.PersistTurn(bg, rec)
	}()
}

// Wait blocks until every in-flight persistence run has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// PersistTurn writes one turn into the short-term window, the fact store,
// and the history index, then triggers summarization when the window is
// full. Turns with no assistant text are skipped entirely.
func (c *Coordinator) PersistTurn(ctx context.Context, rec TurnRecord) {
	if rec.AssistantText == "" {
		log.Printf("[Persist] session %s produced no text, skipping", rec.SessionID)
		return
	}

	c.appendSTM(ctx, rec)
	c.extractFact(ctx, rec)
	c.indexHistory(ctx, rec)
	c.summarizer.MaybeSummarize(ctx, rec.SessionID)

	log.Printf("[Persist] session %s persisted", rec.SessionID)
}

func (c *Coordinator) appendSTM(ctx context.Context, rec TurnRecord) {
	err := c.stm.Append(ctx, rec.SessionID,
		memory.Entry{Role: "user", Content: rec.UserMessage},
		memory.Entry{Role: "assistant", Content: rec.AssistantText},
	)
	if err != nil {
		log.Printf("[Persist] STM append failed for %s: %v", rec.SessionID, err)
		observability.RecordPersistenceStep("stm", "error")
		return
	}
	observability.RecordPersistenceStep("stm", "ok")
}

func (c *Coordinator) extractFact(ctx context.Context, rec TurnRecord) {
	if !memory.WorthRemembering(rec.UserMessage) {
		return
	}
	if err := c.ltm.AddFact(ctx, rec.UserID, rec.UserMessage); err != nil {
		log.Printf("[Persist] LTM fact add failed for %s: %v", rec.UserID, err)
		observability.RecordPersistenceStep("fact", "error")
		return
	}
	observability.RecordPersistenceStep("fact", "ok")
}

func (c *Coordinator) indexHistory(ctx context.Context, rec TurnRecord) {
	if err := c.ltm.AddHistory(ctx, rec.UserID, rec.SessionID, "user", rec.UserMessage, nil); err != nil {
		log.Printf("[Persist] history index (user) failed for %s: %v", rec.SessionID, err)
		observability.RecordPersistenceStep("history", "error")
	} else {
		observability.RecordPersistenceStep("history", "ok")
	}

	sources := "[]"
	if len(rec.Sources) > 0 {
		if data, err := json.Marshal(rec.Sources); err == nil {
			sources = string(data)
		}
	}
	err := c.ltm.AddHistory(ctx, rec.UserID, rec.SessionID, "assistant", rec.AssistantText,
		map[string]any{"sources": sources})
	if err != nil {
		log.Printf("[Persist] history index (assistant) failed for %s: %v", rec.SessionID, err)
		observability.RecordPersistenceStep("history", "error")
		return
	}
	observability.RecordPersistenceStep("history", "ok")
}
