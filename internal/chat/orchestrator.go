package chat

import (
	"context"
	"errors"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ashishjangde/gen-ai-bot/internal/router"
	"github.com/ashishjangde/gen-ai-bot/internal/tools"
	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
	"github.com/ashishjangde/gen-ai-bot/pkg/observability"
)

// sourceCategories lists the result categories surfaced to the client as
// source attribution, in emit order.
var sourceCategories = []string{"web", "rag", "finance", "memory", "history_matches"}

// Orchestrator drives a full conversation turn through the pipeline.
type Orchestrator struct {
	repo        Repository
	stm         *memory.ShortTermStore
	router      *router.Router
	dispatcher  *tools.Dispatcher
	refiner     *Refiner
	generator   *Generator
	coordinator *Coordinator
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	repo Repository,
	stm *memory.ShortTermStore,
	rt *router.Router,
	dispatcher *tools.Dispatcher,
	refiner *Refiner,
	generator *Generator,
	coordinator *Coordinator,
) *Orchestrator {
	return &Orchestrator{
		repo:        repo,
		stm:         stm,
		router:      rt,
		dispatcher:  dispatcher,
		refiner:     refiner,
		generator:   generator,
		coordinator: coordinator,
	}
}

// ChatStream runs one turn and streams its events. The channel is closed
// after the terminal event (done or error). Cancelling ctx stops the stream;
// whatever text was already generated is still persisted.
func (o *Orchestrator) ChatStream(ctx context.Context, req Request) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		o.run(ctx, req, events)
	}()
	return events
}

// Close waits for in-flight background persistence to finish.
func (o *Orchestrator) Close() {
	o.coordinator.Wait()
}

func (o *Orchestrator) run(ctx context.Context, req Request, events chan<- Event) {
	ctx, span := observability.StartSpan(ctx, "chat.turn")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.session_id", req.SessionID),
		attribute.String("chat.user_id", req.UserID),
	)

	observability.IncActiveStreams()
	defer observability.DecActiveStreams()
	turnStart := time.Now()

	// emit reports false once the caller is gone; stages use that to stop
	// producing.
	emit := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// Ownership is checked before any model call.
	if err := o.authorize(ctx, req); err != nil {
		span.RecordError(err)
		observability.RecordTurn("rejected")
		emit(Event{Type: EventError, Err: err})
		return
	}

	state := o.loadState(ctx, req)

	stageStart := time.Now()
	state.intents = o.router.Classify(ctx, req.Message, state.history, state.hasFiles)
	observability.RecordStage("route", time.Since(stageStart))

	stageStart = time.Now()
	state.results = o.dispatcher.Dispatch(ctx, state.intents, tools.Query{
		Text:      req.Message,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})
	observability.RecordStage("dispatch", time.Since(stageStart))

	var sources []tools.ResultItem
	for _, category := range sourceCategories {
		items := state.results[category]
		if len(items) == 0 {
			continue
		}
		sources = append(sources, items...)
		if !emit(Event{Type: EventSource, Category: category, Sources: items}) {
			o.persist(ctx, req, "", sources)
			return
		}
	}

	stageStart = time.Now()
	state.context = BuildContext(state.results, state.history)
	observability.RecordStage("assemble", time.Since(stageStart))

	stageStart = time.Now()
	state.refined = o.refiner.Refine(ctx, req.Message)
	observability.RecordStage("refine", time.Since(stageStart))

	stageStart = time.Now()
	text := o.generator.Generate(ctx, state, emit)
	observability.RecordStage("generate", time.Since(stageStart))

	if emit(Event{Type: EventDone}) {
		observability.RecordTurn("ok")
	} else {
		observability.RecordTurn("disconnected")
	}
	log.Printf("[Chat] turn for session %s finished in %v", req.SessionID, time.Since(turnStart).Round(time.Millisecond))

	o.persist(ctx, req, text, sources)
}

func (o *Orchestrator) authorize(ctx context.Context, req Request) error {
	sess, err := o.repo.GetSession(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if sess.UserID != req.UserID {
		return ErrSessionForbidden
	}
	return nil
}

// loadState gathers the session's window, summary, and upload flag. Each
// read fails soft to its zero value.
func (o *Orchestrator) loadState(ctx context.Context, req Request) *turnState {
	state := &turnState{req: req}

	history, err := o.stm.Recent(ctx, req.SessionID, 0)
	if err != nil {
		log.Printf("[Chat] STM load failed for %s: %v", req.SessionID, err)
	} else {
		state.history = history
	}

	summary, err := o.stm.Summary(ctx, req.SessionID)
	if err != nil {
		log.Printf("[Chat] summary load failed for %s: %v", req.SessionID, err)
	} else {
		state.summary = summary
	}

	hasFiles, err := o.repo.SessionHasFiles(ctx, req.SessionID)
	if err != nil {
		log.Printf("[Chat] file check failed for %s: %v", req.SessionID, err)
	} else {
		state.hasFiles = hasFiles
	}
	return state
}

func (o *Orchestrator) persist(ctx context.Context, req Request, text string, sources []tools.ResultItem) {
	o.coordinator.PersistAsync(ctx, TurnRecord{
		UserID:        req.UserID,
		SessionID:     req.SessionID,
		UserMessage:   req.Message,
		AssistantText: text,
		Sources:       sources,
	})
}
