// Package llm provides the chat completion client used by every model-backed
// stage: intent classification, query refinement, generation, and
// summarization.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message is a single chat message sent to or received from the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Standard message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Usage reports token consumption for a completed request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request describes one chat completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Completion is the full response of a non-streaming call.
type Completion struct {
	Content string
	Usage   Usage
}

// StreamChunk is one increment of a streaming response. Usage is only
// populated on the final chunk, when Done is true.
type StreamChunk struct {
	Delta string
	Usage *Usage
	Done  bool
}

// Stream yields completion chunks. Recv returns io.EOF after the chunk with
// Done set has been consumed.
type Stream interface {
	Recv() (StreamChunk, error)
	Close() error
}

// Client is the chat completion interface implemented by model providers.
type Client interface {
	// Complete performs a blocking chat completion.
	Complete(ctx context.Context, req Request) (*Completion, error)

	// StreamCompletion starts a streaming chat completion.
	StreamCompletion(ctx context.Context, req Request) (Stream, error)

	// Close releases provider resources.
	Close() error
}

// Error codes for classifying provider failures.
const (
	ErrCodeRateLimit      = "rate_limit"
	ErrCodeAuthentication = "authentication"
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeServerError    = "server_error"
	ErrCodeTimeout        = "timeout"
	ErrCodeUnknown        = "unknown"
)

// ClientError wraps a provider failure with a classification code.
type ClientError struct {
	Code    string
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("llm: %s: %s", e.Code, e.Message)
}

func (e *ClientError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth retrying.
func (e *ClientError) Retryable() bool {
	return e.Code == ErrCodeRateLimit || e.Code == ErrCodeServerError || e.Code == ErrCodeTimeout
}

// IsRetryable reports whether err is a retryable provider failure.
func IsRetryable(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Retryable()
	}
	return false
}
