package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashishjangde/gen-ai-bot/internal/llm"
	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
)

func classifierReturning(content string) *llm.MockClient {
	return &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
			return &llm.Completion{Content: content}, nil
		},
	}
}

func TestHeuristicOverrideSkipsModel(t *testing.T) {
	mock := classifierReturning("web_search")
	r := New(mock, "test-model")

	cases := []string{
		"What is my name?",
		"who am i",
		"What did I say about the project?",
		"Do you remember my birthday?",
		"what's my favorite color",
	}
	for _, msg := range cases {
		intents := r.Classify(context.Background(), msg, nil, false)
		assert.Equal(t, []Intent{IntentMemoryRecall}, intents, "message: %q", msg)
	}
	assert.Empty(t, mock.Requests, "heuristic matches must not call the model")
}

func TestClassifySingleIntent(t *testing.T) {
	r := New(classifierReturning("web_search"), "test-model")
	intents := r.Classify(context.Background(), "latest news about AI", nil, false)
	assert.Equal(t, []Intent{IntentWebSearch}, intents)
}

func TestClassifyMultiIntent(t *testing.T) {
	r := New(classifierReturning("financial_data, web_search"), "test-model")
	intents := r.Classify(context.Background(), "TCS stock price and recent news", nil, false)
	assert.ElementsMatch(t, []Intent{IntentFinancialData, IntentWebSearch}, intents)
}

func TestClassifyDecoratedOutput(t *testing.T) {
	r := New(classifierReturning("Intent: web_search."), "test-model")
	intents := r.Classify(context.Background(), "weather today", nil, false)
	assert.Equal(t, []Intent{IntentWebSearch}, intents)
}

func TestClassifyDeduplicates(t *testing.T) {
	r := New(classifierReturning("web_search, web_search"), "test-model")
	intents := r.Classify(context.Background(), "news", nil, false)
	assert.Equal(t, []Intent{IntentWebSearch}, intents)
}

func TestClassifyUnknownFallsBackToDirect(t *testing.T) {
	r := New(classifierReturning("banana"), "test-model")
	intents := r.Classify(context.Background(), "explain quantum physics", nil, false)
	assert.Equal(t, []Intent{IntentDirectAnswer}, intents)
}

func TestClassifyUnknownWithFilesFallsBackToRAG(t *testing.T) {
	r := New(classifierReturning("unsure"), "test-model")
	intents := r.Classify(context.Background(), "what does the pdf conclude", nil, true)
	assert.Equal(t, []Intent{IntentRAGSearch}, intents)
}

func TestClassifyModelFailure(t *testing.T) {
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
			return nil, errors.New("model unavailable")
		},
	}
	r := New(mock, "test-model")
	intents := r.Classify(context.Background(), "anything at all", nil, false)
	assert.Equal(t, []Intent{IntentDirectAnswer}, intents)
}

func TestClassifierRequestShape(t *testing.T) {
	mock := classifierReturning("direct_answer")
	r := New(mock, "router-model")

	history := []memory.Entry{
		{Role: "user", Content: "first"},
		{Role: "user", Content: "second"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "third"},
		{Role: "user", Content: "fourth"},
	}
	r.Classify(context.Background(), "hello", history, true)

	require.Len(t, mock.Requests, 1)
	req := mock.Requests[0]
	assert.Equal(t, "router-model", req.Model)
	assert.Zero(t, req.Temperature)
	assert.Equal(t, 20, req.MaxTokens)

	require.GreaterOrEqual(t, len(req.Messages), 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "HAS uploaded files")

	last := req.Messages[len(req.Messages)-1]
	assert.Equal(t, "[Current] hello", last.Content)

	var previous []string
	for _, m := range req.Messages[1 : len(req.Messages)-1] {
		require.True(t, strings.HasPrefix(m.Content, "[Previous] "))
		previous = append(previous, m.Content)
	}
	assert.Equal(t, []string{"[Previous] third", "[Previous] fourth"}, previous,
		"only user turns from the last three history entries are included")
}

func TestClassifierNoFilesContext(t *testing.T) {
	mock := classifierReturning("direct_answer")
	r := New(mock, "m")
	r.Classify(context.Background(), "hello", nil, false)

	require.Len(t, mock.Requests, 1)
	assert.Contains(t, mock.Requests[0].Messages[0].Content, "NOT uploaded")
}
