package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashishjangde/gen-ai-bot/internal/llm"
	"github.com/ashishjangde/gen-ai-bot/pkg/memory"
)

func newSTM(t *testing.T) *memory.ShortTermStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := memory.NewShortTermStoreWithClient(client, 20, time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func fillWindow(t *testing.T, stm *memory.ShortTermStore, sessionID string, turns int) {
	t.Helper()
	for i := 0; i < turns; i++ {
		err := stm.Append(context.Background(), sessionID,
			memory.Entry{Role: "user", Content: "question"},
			memory.Entry{Role: "assistant", Content: "answer"},
		)
		require.NoError(t, err)
	}
}

func TestSummarizerBelowThreshold(t *testing.T) {
	stm := newSTM(t)
	mock := &llm.MockClient{}
	s := NewSummarizer(mock, "m", stm, 10)

	fillWindow(t, stm, "s1", 4) // 8 entries
	s.MaybeSummarize(context.Background(), "s1")

	summary, err := stm.Summary(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, summary)
	assert.Empty(t, mock.Requests, "no model call below threshold")
}

func TestSummarizerAtThreshold(t *testing.T) {
	stm := newSTM(t)
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
			return &llm.Completion{Content: "The user asked questions and got answers."}, nil
		},
	}
	s := NewSummarizer(mock, "summarizer-model", stm, 10)

	fillWindow(t, stm, "s1", 5) // 10 entries
	s.MaybeSummarize(context.Background(), "s1")

	summary, err := stm.Summary(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "The user asked questions and got answers.", summary)

	require.Len(t, mock.Requests, 1)
	req := mock.Requests[0]
	assert.Equal(t, "summarizer-model", req.Model)
	assert.Contains(t, req.Messages[1].Content, "3-4 concise sentences")
	assert.Contains(t, req.Messages[1].Content, "USER: question")
}

func TestSummarizerTruncatesLongWindows(t *testing.T) {
	stm := newSTM(t)
	var prompt string
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
			prompt = req.Messages[1].Content
			return &llm.Completion{Content: "summary"}, nil
		},
	}
	s := NewSummarizer(mock, "m", stm, 2)

	long := strings.Repeat("x", 4000)
	_ = stm.Append(context.Background(), "s1",
		memory.Entry{Role: "user", Content: long},
		memory.Entry{Role: "assistant", Content: long},
	)
	s.MaybeSummarize(context.Background(), "s1")

	require.NotEmpty(t, prompt)
	assert.LessOrEqual(t, len(prompt), summaryInputLimit+200,
		"rendered window must be cut to the last %d chars", summaryInputLimit)
}

func TestSummarizerTruncationKeepsValidUTF8(t *testing.T) {
	stm := newSTM(t)
	var prompt string
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
			prompt = req.Messages[1].Content
			return &llm.Completion{Content: "summary"}, nil
		},
	}
	s := NewSummarizer(mock, "m", stm, 2)

	// Sized so the byte cut would land inside a three-byte rune.
	_ = stm.Append(context.Background(), "s1",
		memory.Entry{Role: "user", Content: strings.Repeat("€", 1500)},
		memory.Entry{Role: "assistant", Content: strings.Repeat("y", 4000)},
	)
	s.MaybeSummarize(context.Background(), "s1")

	require.NotEmpty(t, prompt)
	assert.True(t, utf8.ValidString(prompt), "truncated window must stay valid UTF-8")
	assert.LessOrEqual(t, len(prompt), summaryInputLimit+200)
}

func TestSummarizerFailureKeepsPreviousSummary(t *testing.T) {
	stm := newSTM(t)
	mock := &llm.MockClient{
		CompleteFunc: func(ctx context.Context, req llm.Request) (*llm.Completion, error) {
			return nil, errors.New("model down")
		},
	}
	s := NewSummarizer(mock, "m", stm, 2)

	require.NoError(t, stm.SetSummary(context.Background(), "s1", "previous summary"))
	fillWindow(t, stm, "s1", 2)
	s.MaybeSummarize(context.Background(), "s1")

	summary, err := stm.Summary(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "previous summary", summary)
}
