package clockify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-autohub/core"
	"github.com/goliatone/go-autohub/transport"
)

type fakeAdapter struct {
	requests  []core.TransportRequest
	responses []core.TransportResponse
}

func (f *fakeAdapter) Kind() string { return "fake" }

func (f *fakeAdapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	f.requests = append(f.requests, req)
	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		return core.TransportResponse{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
	}
	return f.responses[idx], nil
}

func newTestIntegration(responses ...core.TransportResponse) (*Integration, *fakeAdapter) {
	adapter := &fakeAdapter{responses: responses}
	runner := transport.NewRunner("clockify", nil)
	runner.Sleep = func(context.Context, time.Duration) error { return nil }
	client := NewAPIClient("https://api.clockify.me/api", "ck-key", "", adapter, runner)
	return NewIntegration(client), adapter
}

func jsonResponse(status int, payload any) core.TransportResponse {
	body, _ := json.Marshal(payload)
	return core.TransportResponse{StatusCode: status, Body: body}
}

func TestIntegration_GetUser(t *testing.T) {
	integration, adapter := newTestIntegration(jsonResponse(http.StatusOK, User{
		ID:    "u1",
		Email: "jo@example.com",
		Name:  "Jo",
	}))

	result, err := integration.Execute(context.Background(), "get_user", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result["ok"] != true || result["id"] != "u1" {
		t.Fatalf("unexpected result: %v", result)
	}
	req := adapter.requests[0]
	if req.URL != "https://api.clockify.me/api/v1/user" {
		t.Fatalf("unexpected url: %s", req.URL)
	}
	if req.Headers["X-Api-Key"] != "ck-key" {
		t.Fatalf("expected api key header, got %v", req.Headers)
	}
}

func TestIntegration_CreateClient(t *testing.T) {
	integration, adapter := newTestIntegration(jsonResponse(http.StatusCreated, Client{
		ID:          "c1",
		Name:        "Acme",
		WorkspaceID: "w1",
	}))

	result, err := integration.Execute(context.Background(), "create_client", map[string]any{
		"workspaceId": "w1",
		"body":        map[string]any{"name": "Acme"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result["ok"] != true || result["name"] != "Acme" {
		t.Fatalf("unexpected result: %v", result)
	}
	req := adapter.requests[0]
	if req.Method != http.MethodPost || !strings.HasSuffix(req.URL, "/v1/workspaces/w1/clients") {
		t.Fatalf("unexpected request: %s %s", req.Method, req.URL)
	}
	var sent ClientCreate
	if err := json.Unmarshal(req.Body, &sent); err != nil || sent.Name != "Acme" {
		t.Fatalf("unexpected body: %s", req.Body)
	}
}

func TestIntegration_ListOperationsWrapCollections(t *testing.T) {
	integration, _ := newTestIntegration(jsonResponse(http.StatusOK, []Workspace{
		{ID: "w1", Name: "Main"},
	}))

	result, err := integration.Execute(context.Background(), "list_workspaces", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	workspaces, ok := result["workspaces"].([]Workspace)
	if !ok || len(workspaces) != 1 || workspaces[0].ID != "w1" {
		t.Fatalf("unexpected workspaces: %v", result["workspaces"])
	}
}

func TestIntegration_ValidationErrors(t *testing.T) {
	integration, adapter := newTestIntegration()
	cases := []struct {
		name      string
		operation string
		params    map[string]any
	}{
		{"get_workspace missing id", "get_workspace", nil},
		{"create_client missing body", "create_client", map[string]any{"workspaceId": "w1"}},
		{"create_client missing id", "create_client", map[string]any{"body": map[string]any{"name": "A"}}},
		{"create_time_entry missing body", "create_time_entry", map[string]any{"workspaceId": "w1"}},
	}
	for _, tc := range cases {
		_, err := integration.Execute(context.Background(), tc.operation, tc.params)
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if len(adapter.requests) != 0 {
		t.Fatalf("validation failures must not reach the network, got %d requests", len(adapter.requests))
	}
}

func TestIntegration_UnknownOperation(t *testing.T) {
	integration, _ := newTestIntegration()

	_, err := integration.Execute(context.Background(), "fly_to_moon", nil)
	if err == nil {
		t.Fatalf("expected unknown operation error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestIntegration_UnconfiguredClientIsUnauthorized(t *testing.T) {
	integration := NewIntegration(NewAPIClient("", "", "", &fakeAdapter{}, nil))

	_, err := integration.Execute(context.Background(), "get_user", nil)
	if err == nil {
		t.Fatalf("expected unauthorized error")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != core.ErrorCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestIntegration_AddonTokenHeader(t *testing.T) {
	adapter := &fakeAdapter{responses: []core.TransportResponse{jsonResponse(http.StatusOK, User{ID: "u1"})}}
	client := NewAPIClient("", "", "addon-tok", adapter, nil)
	integration := NewIntegration(client)

	if _, err := integration.Execute(context.Background(), "get_user", nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if adapter.requests[0].Headers["X-Addon-Token"] != "addon-tok" {
		t.Fatalf("expected addon token header, got %v", adapter.requests[0].Headers)
	}
}

func TestIntegration_HandleWebhookEchoesReceipt(t *testing.T) {
	integration, _ := newTestIntegration()

	result, err := integration.HandleWebhook(context.Background(), map[string]any{"id": "evt-1"})
	if err != nil {
		t.Fatalf("handle webhook: %v", err)
	}
	if result["received"] != true || result["id"] != "evt-1" {
		t.Fatalf("unexpected result: %v", result)
	}
}
