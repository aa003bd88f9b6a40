// Package chat implements the conversation pipeline: intent routing, tool
// dispatch, context assembly, prompt refinement, streamed generation, and
// background persistence.
package chat

import (
	"github.com/ashishjangde/gen-ai-bot/internal/llm"
	"github.com/ashishjangde/gen-ai-bot/internal/tools"
)

// EventType tags the events emitted while streaming a turn.
type EventType string

const (
	// EventToken carries one generated text fragment.
	EventToken EventType = "token"

	// EventSource carries one category of retrieved sources, emitted
	// before tokens.
	EventSource EventType = "source"

	// EventUsage carries token accounting for the turn.
	EventUsage EventType = "usage"

	// EventDone marks the end of a successful stream.
	EventDone EventType = "done"

	// EventError marks a failed turn. No further events follow.
	EventError EventType = "error"
)

// Event is one item in a turn's stream. Source events carry one result
// category each, with Category naming it.
type Event struct {
	Type     EventType
	Token    string
	Category string
	Sources  []tools.ResultItem
	Usage    *llm.Usage
	Err      error
}
