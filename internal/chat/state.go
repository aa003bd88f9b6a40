package chat

import (
	"github.com/ashishjangde/gen-ai-bot/internal/router"
	"github.com/ashishjangde/gen-ai-bot/internal/tools"
	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
)

// Request identifies one user turn.
type Request struct {
	UserID    string
	SessionID string
	Message   string
}

// turnState accumulates everything the pipeline stages produce for a turn.
type turnState struct {
	req      Request
	history  []memory.Entry
	summary  string
	hasFiles bool

	intents []router.Intent
	results tools.PartialResult
	context string
	refined string
}

// TurnRecord is what the persistence coordinator stores after a turn.
type TurnRecord struct {
	UserID        string
	SessionID     string
	UserMessage   string
	AssistantText string
	Sources       []tools.ResultItem
}
