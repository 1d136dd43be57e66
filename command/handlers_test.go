package command

import (
	"context"
	"errors"
	"testing"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-autohub/core"
)

type stubDispatcher struct {
	action core.Action
	result map[string]any
	err    error
}

func (s *stubDispatcher) Dispatch(_ context.Context, action core.Action) (map[string]any, error) {
	s.action = action
	return s.result, s.err
}

type stubEnqueuer struct {
	jobs []*core.ActionJobMessage
	err  error
}

func (s *stubEnqueuer) Enqueue(_ context.Context, msg *core.ActionJobMessage) error {
	s.jobs = append(s.jobs, msg)
	return s.err
}

type stubScheduler struct {
	cron    string
	action  core.Action
	entryID string
	err     error
}

func (s *stubScheduler) Schedule(_ context.Context, cron string, action core.Action) (string, error) {
	s.cron = cron
	s.action = action
	return s.entryID, s.err
}

func TestRunActionCommand_StoresResult(t *testing.T) {
	dispatcher := &stubDispatcher{result: map[string]any{"ok": true, "id": "c1"}}
	cmd := NewRunActionCommand(dispatcher)

	collector := gocmd.NewResult[map[string]any]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	action := core.NewAction("clockify", "create_client", map[string]any{"workspaceId": "w1"})
	if err := cmd.Execute(ctx, RunActionMessage{Action: action}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if dispatcher.action.Integration != "clockify" {
		t.Fatalf("expected dispatch, got %+v", dispatcher.action)
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result["id"] != "c1" {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestRunActionCommand_PropagatesDispatchError(t *testing.T) {
	cmd := NewRunActionCommand(&stubDispatcher{err: errors.New("boom")})

	err := cmd.Execute(context.Background(), RunActionMessage{
		Action: core.NewAction("clockify", "get_user", nil),
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected dispatch error, got %v", err)
	}
}

func TestRunActionCommand_RequiresDispatcher(t *testing.T) {
	cmd := NewRunActionCommand(nil)
	if err := cmd.Execute(context.Background(), RunActionMessage{}); err == nil {
		t.Fatalf("expected dependency error")
	}
}

func TestEnqueueActionCommand(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	cmd := NewEnqueueActionCommand(enqueuer)

	msg := EnqueueActionMessage{Job: core.ActionJobMessage{
		JobID:  "job-1",
		Action: core.NewAction("slack", "post_message", map[string]any{"channel": "#ops", "text": "hi"}),
	}}
	if err := cmd.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(enqueuer.jobs) != 1 || enqueuer.jobs[0].JobID != "job-1" {
		t.Fatalf("expected enqueued job, got %+v", enqueuer.jobs)
	}
}

func TestScheduleActionCommand_StoresEntryID(t *testing.T) {
	scheduler := &stubScheduler{entryID: "entry-7"}
	cmd := NewScheduleActionCommand(scheduler)

	collector := gocmd.NewResult[string]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	msg := ScheduleActionMessage{
		Cron:   "0 9 * * 1",
		Action: core.NewAction("slack", "post_message", map[string]any{"channel": "#ops", "text": "weekly"}),
	}
	if err := cmd.Execute(ctx, msg); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if scheduler.cron != "0 9 * * 1" {
		t.Fatalf("expected cron forwarded, got %q", scheduler.cron)
	}
	entryID, ok := collector.Load()
	if !ok || entryID != "entry-7" {
		t.Fatalf("expected stored entry id, got %q ok=%v", entryID, ok)
	}
}

func TestMessageValidation(t *testing.T) {
	valid := core.NewAction("clockify", "get_user", nil)

	if err := (RunActionMessage{Action: valid}).Validate(); err != nil {
		t.Fatalf("valid run message: %v", err)
	}
	if err := (RunActionMessage{}).Validate(); err == nil {
		t.Fatalf("expected invalid action rejected")
	}
	if err := (ScheduleActionMessage{Cron: "", Action: valid}).Validate(); err == nil {
		t.Fatalf("expected missing cron rejected")
	}
	if err := (ScheduleActionMessage{Cron: "* * * * *", Action: valid}).Validate(); err != nil {
		t.Fatalf("valid schedule message: %v", err)
	}
	if err := (EnqueueActionMessage{Job: core.ActionJobMessage{Action: valid}}).Validate(); err != nil {
		t.Fatalf("valid enqueue message: %v", err)
	}
}
