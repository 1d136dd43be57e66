package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-autohub/core"
)

type stubAdapter struct {
	req   core.TransportRequest
	res   core.TransportResponse
	err   error
	calls int
}

func (s *stubAdapter) Kind() string { return "stub" }

func (s *stubAdapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	s.calls++
	s.req = req
	return s.res, s.err
}

func completionBody(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return body
}

func TestClient_Complete(t *testing.T) {
	adapter := &stubAdapter{res: core.TransportResponse{
		StatusCode: http.StatusOK,
		Body:       completionBody(`{"integration":"clockify","operation":"get_user"}`),
	}}
	client := New("https://api.deepseek.com/v1/", "sk-test", "deepseek-chat", adapter, nil)

	reply, err := client.Complete(context.Background(), "system prompt", "get my user")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != `{"integration":"clockify","operation":"get_user"}` {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if adapter.req.URL != "https://api.deepseek.com/v1/chat/completions" {
		t.Fatalf("unexpected url: %s", adapter.req.URL)
	}
	if adapter.req.Headers["Authorization"] != "Bearer sk-test" {
		t.Fatalf("expected bearer auth, got %v", adapter.req.Headers)
	}

	var sent struct {
		Model       string `json:"model"`
		Temperature float64
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(adapter.req.Body, &sent); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if sent.Model != "deepseek-chat" || len(sent.Messages) != 2 {
		t.Fatalf("unexpected request body: %+v", sent)
	}
	if sent.Messages[0].Role != "system" || sent.Messages[1].Role != "user" {
		t.Fatalf("unexpected message roles: %+v", sent.Messages)
	}
}

func TestClient_MissingKeyFailsWithoutCalling(t *testing.T) {
	adapter := &stubAdapter{}
	client := New("", "", "", adapter, nil)

	if client.Configured() {
		t.Fatalf("expected unconfigured client")
	}
	_, err := client.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatalf("expected missing-key error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if adapter.calls != 0 {
		t.Fatalf("expected no upstream calls, got %d", adapter.calls)
	}
}

func TestClient_UpstreamErrorsClassified(t *testing.T) {
	adapter := &stubAdapter{res: core.TransportResponse{StatusCode: http.StatusUnauthorized}}
	client := New("", "sk-bad", "", adapter, nil)

	_, err := client.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatalf("expected upstream rejection")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if adapter.calls != 1 {
		t.Fatalf("401 should not be retried, got %d calls", adapter.calls)
	}
}

func TestClient_EmptyChoicesIsUpstreamError(t *testing.T) {
	adapter := &stubAdapter{res: core.TransportResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"choices":[]}`),
	}}
	client := New("", "sk-test", "", adapter, nil)

	_, err := client.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatalf("expected error for empty choices")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
