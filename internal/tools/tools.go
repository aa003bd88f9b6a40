// Package tools dispatches retrieval work for classified intents. Branches
// run concurrently and fail soft: a broken backend degrades the answer, it
// never kills the turn.
package tools

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/ashishjangde/gen-ai-bot/internal/router"
	"github.com/ashishjangde/gen-ai-bot/pkg/observability"
)

// ResultItem is one retrieved item ready for context assembly and source
// attribution.
type ResultItem struct {
	Category string  `json:"category"`
	Content  string  `json:"content"`
	Source   string  `json:"source,omitempty"`
	Title    string  `json:"title,omitempty"`
	Favicon  string  `json:"favicon,omitempty"`
	Score    float32 `json:"score,omitempty"`
}

// Query carries the user message and its scope into a handler.
type Query struct {
	Text      string
	UserID    string
	SessionID string
}

// PartialResult maps result categories (web, rag, finance, memory,
// history_matches) to their items. Categories from different handlers never
// collide, so merging is associative.
type PartialResult map[string][]ResultItem

// Handler executes the retrieval for one intent.
type Handler interface {
	Name() string
	Execute(ctx context.Context, q Query) (PartialResult, error)
}

// Dispatcher fans intents out to their handlers and merges the results.
type Dispatcher struct {
	handlers map[router.Intent]Handler
	timeout  time.Duration
}

// NewDispatcher builds a dispatcher with a per-branch timeout.
// timeout <= 0 falls back to 15 seconds.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		handlers: make(map[router.Intent]Handler),
		timeout:  timeout,
	}
}

// Register binds a handler to an intent. Registering the same intent twice
// is a programming error.
func (d *Dispatcher) Register(intent router.Intent, h Handler) {
	if h == nil {
		panic("tools: Register handler is nil")
	}
	if _, dup := d.handlers[intent]; dup {
		panic(fmt.Sprintf("tools: Register called twice for intent %s", intent))
	}
	d.handlers[intent] = h
}

// Dispatch runs every handler whose intent was detected, concurrently, and
// merges their partial results. Intents without a handler (direct_answer
// included) are skipped. A failing or timed-out branch contributes nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, intents []router.Intent, q Query) PartialResult {
	ctx, span := observability.StartSpan(ctx, "tools.dispatch")
	defer span.End()

	merged := make(PartialResult)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	dispatched := 0
	for _, intent := range intents {
		h, ok := d.handlers[intent]
		if !ok {
			continue
		}
		dispatched++

		g.Go(func() error {
			branchCtx, cancel := context.WithTimeout(gctx, d.timeout)
			defer cancel()

			start := time.Now()
			partial, err := h.Execute(branchCtx, q)
			elapsed := time.Since(start)

			if err != nil {
				log.Printf("[Tools] %s failed after %v: %v", h.Name(), elapsed.Round(time.Millisecond), err)
				observability.RecordToolCall(h.Name(), "error", elapsed)
				return nil
			}
			observability.RecordToolCall(h.Name(), "ok", elapsed)

			mu.Lock()
			for category, items := range partial {
				merged[category] = append(merged[category], items...)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("tools.dispatched", dispatched),
		attribute.Int("tools.categories", len(merged)),
	)
	return merged
}

// FaviconURL returns a favicon for a source URL via the Google favicon
// service, or a generic fallback when the URL does not parse.
func FaviconURL(source string) string {
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return "https://www.google.com/s2/favicons?domain=example.com"
	}
	return fmt.Sprintf("https://www.google.com/s2/favicons?domain=%s&sz=64", u.Host)
}
