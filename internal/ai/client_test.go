package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnthropicClientComplete(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != apiVersion {
			t.Errorf("anthropic-version = %q", r.Header.Get("anthropic-version"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"content": [
				{"type": "text", "text": "{\"summary\": "},
				{"type": "text", "text": "\"ok\"}"}
			],
			"stop_reason": "end_turn"
		}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(ClientOptions{APIKey: "test-key", BaseURL: srv.URL, MaxTokens: 256})
	text, err := c.Complete(context.Background(), "sys", "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"summary": "ok"}` {
		t.Errorf("text = %q", text)
	}

	if got.Model != defaultModel || got.MaxTokens != 256 || got.System != "sys" {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content[0].Text != "hello" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestAnthropicClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(ClientOptions{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "", "hi")

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
	if svcErr.StatusCode != http.StatusTooManyRequests || svcErr.Message != "slow down" {
		t.Errorf("ServiceError = %+v", svcErr)
	}
}

func TestAnthropicClientNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewAnthropicClient(ClientOptions{BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "", "hi")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("error = %v, want 502 ServiceError", err)
	}
}

func TestAnthropicClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewAnthropicClient(ClientOptions{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Complete(context.Background(), "", "hi")
	if !IsServiceError(err) {
		t.Fatalf("error = %v, want ServiceError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded in chain", err)
	}
}

func TestAnthropicClientRateLimitCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{}"}]}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(ClientOptions{BaseURL: srv.URL, RateLimit: 0.001})
	if _, err := c.Complete(context.Background(), "", "first"); err != nil {
		t.Fatalf("first Complete: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Complete(ctx, "", "second")
	if !IsServiceError(err) {
		t.Fatalf("error = %v, want ServiceError from limiter", err)
	}
}
