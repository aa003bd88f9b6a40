package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultBaseURL    = "https://api.groq.com/openai/v1"
	defaultMaxRetries = 3
	retryBaseDelay    = 500 * time.Millisecond
)

// GroqClient talks to the Groq API through its OpenAI-compatible surface.
type GroqClient struct {
	client     *openai.Client
	maxRetries int
}

// GroqOptions configures a GroqClient.
type GroqOptions struct {
	APIKey  string
	BaseURL string

	// MaxRetries bounds retries for blocking completions (default 3).
	// Streaming calls are never retried once the stream is open.
	MaxRetries int
}

// NewGroqClient creates a client for the Groq chat completion API.
func NewGroqClient(opts GroqOptions) (*GroqClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = opts.BaseURL
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &GroqClient{
		client:     openai.NewClientWithConfig(cfg),
		maxRetries: maxRetries,
	}, nil
}

// Complete performs a blocking chat completion, retrying transient failures
// with exponential backoff.
func (g *GroqClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &ClientError{Code: ErrCodeTimeout, Message: "context cancelled during retry", Err: ctx.Err()}
			}
		}

		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       req.Model,
			Messages:    toOpenAIMessages(req.Messages),
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			lastErr = classifyError(err)
			if IsRetryable(lastErr) {
				continue
			}
			return nil, lastErr
		}

		if len(resp.Choices) == 0 {
			return nil, &ClientError{Code: ErrCodeServerError, Message: "no choices in response"}
		}

		return &Completion{
			Content: resp.Choices[0].Message.Content,
			Usage: Usage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		}, nil
	}
	return nil, lastErr
}

// StreamCompletion starts a streaming chat completion with usage reporting
// enabled on the final chunk.
func (g *GroqClient) StreamCompletion(ctx context.Context, req Request) (Stream, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	})
	if err != nil {
		return nil, classifyError(err)
	}
	return &groqStream{inner: stream}, nil
}

// Close releases provider resources.
func (g *GroqClient) Close() error { return nil }

type groqStream struct {
	inner *openai.ChatCompletionStream
	done  bool
}

func (s *groqStream) Recv() (StreamChunk, error) {
	if s.done {
		return StreamChunk{}, io.EOF
	}

	resp, err := s.inner.Recv()
	if errors.Is(err, io.EOF) {
		s.done = true
		return StreamChunk{Done: true}, nil
	}
	if err != nil {
		return StreamChunk{}, classifyError(err)
	}

	chunk := StreamChunk{}
	if len(resp.Choices) > 0 {
		chunk.Delta = resp.Choices[0].Delta.Content
	}
	if resp.Usage != nil {
		chunk.Usage = &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return chunk, nil
}

func (s *groqStream) Close() error {
	return s.inner.Close()
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ErrCodeUnknown
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			code = ErrCodeRateLimit
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			code = ErrCodeAuthentication
		case apiErr.HTTPStatusCode >= 500:
			code = ErrCodeServerError
		case apiErr.HTTPStatusCode >= 400:
			code = ErrCodeInvalidRequest
		}
		return &ClientError{Code: code, Message: apiErr.Message, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Code: ErrCodeTimeout, Message: "request timed out", Err: err}
	}
	return &ClientError{Code: ErrCodeUnknown, Message: "provider request failed", Err: err}
}
