package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-autohub/core"
)

type countingDispatcher struct {
	mu       sync.Mutex
	calls    int
	failNext int
	actions  []core.Action
}

func (d *countingDispatcher) Dispatch(_ context.Context, action core.Action) (map[string]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.actions = append(d.actions, action)
	if d.failNext > 0 {
		d.failNext--
		return nil, errors.New("dispatch failed")
	}
	return map[string]any{"ok": true}, nil
}

func (d *countingDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type recordingHook struct {
	mu        sync.Mutex
	successes int
	failures  int
	retries   int
}

func (h *recordingHook) OnStart(context.Context, core.JobWorkerEvent) {}
func (h *recordingHook) OnSuccess(context.Context, core.JobWorkerEvent) {
	h.mu.Lock()
	h.successes++
	h.mu.Unlock()
}
func (h *recordingHook) OnFailure(context.Context, core.JobWorkerEvent) {
	h.mu.Lock()
	h.failures++
	h.mu.Unlock()
}
func (h *recordingHook) OnRetry(context.Context, core.JobWorkerEvent) {
	h.mu.Lock()
	h.retries++
	h.mu.Unlock()
}

func runWorkerUntilIdle(t *testing.T, worker *Worker, timeout time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("worker run: %v", err)
	}
}

func TestWorker_DispatchesAndAcks(t *testing.T) {
	queue := NewMemoryQueue(4)
	dispatcher := &countingDispatcher{}
	hook := &recordingHook{}
	worker := NewWorker(queue, dispatcher, nil)
	worker.Hook = hook

	msg := &core.ActionJobMessage{
		JobID:  "job-ok",
		Action: core.NewAction("slack", "post_message", map[string]any{"channel": "#ops", "text": "hi"}),
	}
	if err := queue.Enqueue(context.Background(), msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	runWorkerUntilIdle(t, worker, 100*time.Millisecond)

	if dispatcher.callCount() != 1 {
		t.Fatalf("expected one dispatch, got %d", dispatcher.callCount())
	}
	if hook.successes != 1 {
		t.Fatalf("expected success hook, got %d", hook.successes)
	}
}

func TestWorker_RetriesThenSucceeds(t *testing.T) {
	queue := NewMemoryQueue(4)
	dispatcher := &countingDispatcher{failNext: 1}
	hook := &recordingHook{}
	worker := NewWorker(queue, dispatcher, nil)
	worker.Hook = hook
	worker.RetryDelay = 0

	msg := &core.ActionJobMessage{JobID: "job-flaky", Action: core.NewAction("clockify", "get_user", nil)}
	if err := queue.Enqueue(context.Background(), msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	runWorkerUntilIdle(t, worker, 200*time.Millisecond)

	if dispatcher.callCount() != 2 {
		t.Fatalf("expected two dispatches, got %d", dispatcher.callCount())
	}
	if hook.retries != 1 || hook.successes != 1 {
		t.Fatalf("expected one retry then success, got retries=%d successes=%d", hook.retries, hook.successes)
	}
}

func TestWorker_DeadLettersAfterMaxAttempts(t *testing.T) {
	queue := NewMemoryQueue(4)
	dispatcher := &countingDispatcher{failNext: 10}
	hook := &recordingHook{}
	worker := NewWorker(queue, dispatcher, nil)
	worker.Hook = hook
	worker.MaxAttempts = 2
	worker.RetryDelay = 0

	msg := &core.ActionJobMessage{JobID: "job-doomed", Action: core.NewAction("clockify", "get_user", nil)}
	if err := queue.Enqueue(context.Background(), msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	runWorkerUntilIdle(t, worker, 200*time.Millisecond)

	if dispatcher.callCount() != 2 {
		t.Fatalf("expected two attempts, got %d", dispatcher.callCount())
	}
	if hook.failures != 1 {
		t.Fatalf("expected one terminal failure, got %d", hook.failures)
	}
	if queue.DeadLetterCount() != 1 {
		t.Fatalf("expected dead letter, got %d", queue.DeadLetterCount())
	}
}
