package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newGroqTestClient(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGroqClient(GroqOptions{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGroqClient: %v", err)
	}
	return client
}

func completionJSON(content string) string {
	return fmt.Sprintf(`{
		"id": "cmpl-1",
		"object": "chat.completion",
		"model": "llama-3.3-70b-versatile",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
	}`, content)
}

func TestCompleteSuccess(t *testing.T) {
	client := newGroqTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != "llama-3.3-70b-versatile" {
			t.Errorf("unexpected model: %v", req["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON("hello"))
	})

	resp, err := client.Complete(context.Background(), Request{
		Model:    "llama-3.3-70b-versatile",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	client := newGroqTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error": {"message": "rate limit exceeded", "type": "rate_limit_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionJSON("recovered"))
	})

	resp, err := client.Complete(context.Background(), Request{
		Model:    "m",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "recovered" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestCompleteDoesNotRetryAuthFailure(t *testing.T) {
	var calls atomic.Int32
	client := newGroqTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`)
	})

	_, err := client.Complete(context.Background(), Request{
		Model:    "m",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *ClientError
	if !errors.As(err, &ce) || ce.Code != ErrCodeAuthentication {
		t.Errorf("expected authentication error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestStreamCompletion(t *testing.T) {
	client := newGroqTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"Hel"}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"id":"1","object":"chat.completion.chunk","choices":[{"index":0,"delta":{"content":"lo"}}]}`+"\n\n")
		fmt.Fprint(w, `data: {"id":"1","object":"chat.completion.chunk","choices":[],"usage":{"prompt_tokens":4,"completion_tokens":2,"total_tokens":6}}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stream, err := client.StreamCompletion(context.Background(), Request{
		Model:    "m",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("StreamCompletion: %v", err)
	}
	defer stream.Close()

	content, usage, err := CollectStream(stream)
	if err != nil {
		t.Fatalf("CollectStream: %v", err)
	}
	if content != "Hello" {
		t.Errorf("unexpected content: %q", content)
	}
	if usage == nil || usage.TotalTokens != 6 {
		t.Errorf("unexpected usage: %+v", usage)
	}
}

func TestNewGroqClientRequiresKey(t *testing.T) {
	if _, err := NewGroqClient(GroqOptions{}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestClientErrorRetryable(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{ErrCodeRateLimit, true},
		{ErrCodeServerError, true},
		{ErrCodeTimeout, true},
		{ErrCodeAuthentication, false},
		{ErrCodeInvalidRequest, false},
		{ErrCodeUnknown, false},
	}
	for _, tc := range cases {
		err := &ClientError{Code: tc.code, Message: "x"}
		if got := IsRetryable(err); got != tc.want {
			t.Errorf("IsRetryable(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors should not be retryable")
	}
}

func TestScriptedStream(t *testing.T) {
	stream := NewScriptedStream([]string{"a", "b"}, &Usage{TotalTokens: 2})
	content, usage, err := CollectStream(stream)
	if err != nil {
		t.Fatalf("CollectStream: %v", err)
	}
	if content != "ab" || usage.TotalTokens != 2 {
		t.Errorf("unexpected result: %q %+v", content, usage)
	}
}

func TestFailingStream(t *testing.T) {
	wantErr := errors.New("connection reset")
	stream := NewFailingStream([]string{"partial "}, wantErr)
	content, _, err := CollectStream(stream)
	if content != "partial " {
		t.Errorf("unexpected partial content: %q", content)
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("expected scripted error, got %v", err)
	}
}
