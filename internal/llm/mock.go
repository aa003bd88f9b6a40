package llm

import (
	"context"
	"io"
	"strings"
)

// MockClient is a scriptable Client for tests.
type MockClient struct {
	CompleteFunc func(ctx context.Context, req Request) (*Completion, error)
	StreamFunc   func(ctx context.Context, req Request) (Stream, error)

	// Requests records every request received, in order.
	Requests []Request
}

func (m *MockClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	m.Requests = append(m.Requests, req)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &Completion{Content: "mock response"}, nil
}

func (m *MockClient) StreamCompletion(ctx context.Context, req Request) (Stream, error) {
	m.Requests = append(m.Requests, req)
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}
	return NewScriptedStream([]string{"mock ", "response"}, &Usage{TotalTokens: 2}), nil
}

func (m *MockClient) Close() error { return nil }

// ScriptedStream replays a fixed sequence of deltas followed by a final
// usage-bearing chunk.
type ScriptedStream struct {
	chunks []StreamChunk
	pos    int

	// Err, if set, is returned after the deltas instead of the final chunk.
	Err error
}

// NewScriptedStream builds a stream that yields one chunk per delta and then
// a Done chunk carrying the usage.
func NewScriptedStream(deltas []string, usage *Usage) *ScriptedStream {
	chunks := make([]StreamChunk, 0, len(deltas)+1)
	for _, d := range deltas {
		chunks = append(chunks, StreamChunk{Delta: d})
	}
	chunks = append(chunks, StreamChunk{Usage: usage, Done: true})
	return &ScriptedStream{chunks: chunks}
}

// NewFailingStream yields the deltas and then fails with err.
func NewFailingStream(deltas []string, err error) *ScriptedStream {
	chunks := make([]StreamChunk, 0, len(deltas))
	for _, d := range deltas {
		chunks = append(chunks, StreamChunk{Delta: d})
	}
	return &ScriptedStream{chunks: chunks, Err: err}
}

func (s *ScriptedStream) Recv() (StreamChunk, error) {
	if s.pos >= len(s.chunks) {
		if s.Err != nil {
			return StreamChunk{}, s.Err
		}
		return StreamChunk{}, io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	if chunk.Done && s.Err != nil {
		return StreamChunk{}, s.Err
	}
	return chunk, nil
}

func (s *ScriptedStream) Close() error { return nil }

// CollectStream drains a stream and returns the concatenated content.
// Used in tests.
func CollectStream(stream Stream) (string, *Usage, error) {
	var sb strings.Builder
	var usage *Usage
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return sb.String(), usage, nil
		}
		if err != nil {
			return sb.String(), usage, err
		}
		sb.WriteString(chunk.Delta)
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if chunk.Done {
			return sb.String(), usage, nil
		}
	}
}
