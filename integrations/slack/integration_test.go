package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-autohub/core"
)

type fakeAdapter struct {
	req   core.TransportRequest
	res   core.TransportResponse
	calls int
}

func (f *fakeAdapter) Kind() string { return "fake" }

func (f *fakeAdapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	f.calls++
	f.req = req
	return f.res, nil
}

func apiResponse(payload any) core.TransportResponse {
	body, _ := json.Marshal(payload)
	return core.TransportResponse{StatusCode: http.StatusOK, Body: body}
}

func TestIntegration_PostMessage(t *testing.T) {
	adapter := &fakeAdapter{res: apiResponse(map[string]any{"ok": true, "ts": "123.456"})}
	integration := NewIntegration("xoxb-token", adapter, nil)

	result, err := integration.Execute(context.Background(), "post_message", map[string]any{
		"channel": "#general",
		"text":    "deploy finished",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result["ok"] != true || result["ts"] != "123.456" {
		t.Fatalf("unexpected result: %v", result)
	}
	if adapter.req.URL != "https://slack.com/api/chat.postMessage" {
		t.Fatalf("unexpected url: %s", adapter.req.URL)
	}
	if adapter.req.Headers["Authorization"] != "Bearer xoxb-token" {
		t.Fatalf("expected bearer auth, got %v", adapter.req.Headers)
	}
	var sent map[string]string
	if err := json.Unmarshal(adapter.req.Body, &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if sent["channel"] != "#general" || sent["text"] != "deploy finished" {
		t.Fatalf("unexpected body: %v", sent)
	}
}

func TestIntegration_PostMessageValidation(t *testing.T) {
	adapter := &fakeAdapter{}
	integration := NewIntegration("xoxb-token", adapter, nil)

	for _, params := range []map[string]any{
		nil,
		{"channel": "#general"},
		{"text": "hi"},
	} {
		_, err := integration.Execute(context.Background(), "post_message", params)
		if err == nil {
			t.Fatalf("params %v: expected validation error", params)
		}
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeValidation {
			t.Fatalf("params %v: expected validation error, got %v", params, err)
		}
	}
	if adapter.calls != 0 {
		t.Fatalf("validation failures must not reach the network")
	}
}

func TestIntegration_MissingTokenIsUnauthorized(t *testing.T) {
	integration := NewIntegration("", &fakeAdapter{}, nil)

	_, err := integration.Execute(context.Background(), "post_message", map[string]any{
		"channel": "#general",
		"text":    "hi",
	})
	if err == nil {
		t.Fatalf("expected unauthorized error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestIntegration_LogicalAPIFailureIsUpstream(t *testing.T) {
	adapter := &fakeAdapter{res: apiResponse(map[string]any{"ok": false, "error": "channel_not_found"})}
	integration := NewIntegration("xoxb-token", adapter, nil)

	_, err := integration.Execute(context.Background(), "post_message", map[string]any{
		"channel": "#nope",
		"text":    "hi",
	})
	if err == nil {
		t.Fatalf("expected upstream error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestIntegration_UnknownOperation(t *testing.T) {
	integration := NewIntegration("xoxb-token", &fakeAdapter{}, nil)

	_, err := integration.Execute(context.Background(), "delete_channel", nil)
	if err == nil {
		t.Fatalf("expected unknown operation error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestIntegration_URLVerificationChallenge(t *testing.T) {
	integration := NewIntegration("", &fakeAdapter{}, nil)

	result, err := integration.HandleWebhook(context.Background(), map[string]any{
		"type":      "url_verification",
		"challenge": "abc123",
	})
	if err != nil {
		t.Fatalf("handle webhook: %v", err)
	}
	if result["challenge"] != "abc123" {
		t.Fatalf("expected challenge echoed, got %v", result)
	}

	result, err = integration.HandleWebhook(context.Background(), map[string]any{"type": "event_callback"})
	if err != nil {
		t.Fatalf("handle webhook: %v", err)
	}
	if result["received"] != true {
		t.Fatalf("expected receipt, got %v", result)
	}
}
