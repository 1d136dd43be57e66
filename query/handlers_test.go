package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-autohub/core"
)

type stubActivityReader struct {
	eventsFn func(ctx context.Context, limit int) ([]core.WebhookEventActivity, error)
	runsFn   func(ctx context.Context, limit int) ([]core.ActionRunActivity, error)
}

func (s stubActivityReader) RecentWebhookEvents(ctx context.Context, limit int) ([]core.WebhookEventActivity, error) {
	if s.eventsFn == nil {
		return nil, fmt.Errorf("unexpected webhook events read")
	}
	return s.eventsFn(ctx, limit)
}

func (s stubActivityReader) RecentActionRuns(ctx context.Context, limit int) ([]core.ActionRunActivity, error) {
	if s.runsFn == nil {
		return nil, fmt.Errorf("unexpected action runs read")
	}
	return s.runsFn(ctx, limit)
}

func TestListWebhookEventsQuery_Delegates(t *testing.T) {
	expected := []core.WebhookEventActivity{
		{EventID: "evt-1", EventType: string(core.EventTypeTimeEntry), ReceivedAt: time.Now().UTC()},
	}
	called := false
	reader := stubActivityReader{
		eventsFn: func(_ context.Context, limit int) ([]core.WebhookEventActivity, error) {
			called = true
			if limit != 10 {
				t.Fatalf("unexpected limit: %d", limit)
			}
			return expected, nil
		},
	}

	qry := NewListWebhookEventsQuery(reader)
	result, err := qry.Query(context.Background(), ListWebhookEventsMessage{Limit: 10})
	if err != nil {
		t.Fatalf("query webhook events: %v", err)
	}
	if !called {
		t.Fatal("expected reader invocation")
	}
	if len(result) != 1 || result[0].EventID != "evt-1" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestListActionRunsQuery_Delegates(t *testing.T) {
	expected := []core.ActionRunActivity{
		{Integration: "clockify", Operation: "create_client", Status: "success"},
	}
	reader := stubActivityReader{
		runsFn: func(_ context.Context, limit int) ([]core.ActionRunActivity, error) {
			if limit != 0 {
				t.Fatalf("expected zero limit passed through, got %d", limit)
			}
			return expected, nil
		},
	}

	qry := NewListActionRunsQuery(reader)
	result, err := qry.Query(context.Background(), ListActionRunsMessage{})
	if err != nil {
		t.Fatalf("query action runs: %v", err)
	}
	if len(result) != 1 || result[0].Integration != "clockify" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestQueries_RequireReader(t *testing.T) {
	if _, err := NewListWebhookEventsQuery(nil).Query(context.Background(), ListWebhookEventsMessage{}); err == nil {
		t.Fatal("expected dependency error for missing reader")
	}
	if _, err := NewListActionRunsQuery(nil).Query(context.Background(), ListActionRunsMessage{}); err == nil {
		t.Fatal("expected dependency error for missing reader")
	}
}

func TestMessages_Validate(t *testing.T) {
	if err := (ListWebhookEventsMessage{Limit: -1}).Validate(); err == nil {
		t.Fatal("expected negative limit rejection")
	}
	if err := (ListWebhookEventsMessage{Limit: 25}).Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := (ListActionRunsMessage{Limit: -5}).Validate(); err == nil {
		t.Fatal("expected negative limit rejection")
	}
	if got := (ListActionRunsMessage{}).Type(); got != TypeListActionRuns {
		t.Fatalf("unexpected message type: %q", got)
	}
}
