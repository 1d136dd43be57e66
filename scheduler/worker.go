package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-autohub/core"
)

// Worker drains the action queue and routes each job through the
// dispatcher. Failed jobs are nacked with a linear delay and dead-lettered
// after MaxAttempts.
type Worker struct {
	Dequeuer    core.ActionDequeuer
	Dispatcher  core.ActionDispatcher
	Hook        core.JobWorkerHook
	Logger      core.Logger
	MaxAttempts int
	RetryDelay  time.Duration

	attempts map[string]int
}

func NewWorker(dequeuer core.ActionDequeuer, dispatcher core.ActionDispatcher, logger core.Logger) *Worker {
	return &Worker{
		Dequeuer:    dequeuer,
		Dispatcher:  dispatcher,
		Logger:      glog.Ensure(logger),
		MaxAttempts: 3,
		RetryDelay:  5 * time.Second,
		attempts:    map[string]int{},
	}
}

// Run processes jobs until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.Dequeuer == nil || w.Dispatcher == nil {
		return fmt.Errorf("scheduler: worker requires a dequeuer and a dispatcher")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := glog.Ensure(w.Logger)

	for {
		delivery, err := w.Dequeuer.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		w.handle(ctx, delivery, logger)
	}
}

func (w *Worker) handle(ctx context.Context, delivery core.ActionDelivery, logger core.Logger) {
	msg := delivery.Message()
	if msg == nil {
		_ = delivery.Ack(ctx)
		return
	}

	attempt := w.attempts[msg.JobID] + 1
	w.attempts[msg.JobID] = attempt
	startedAt := time.Now().UTC()

	event := core.JobWorkerEvent{Message: msg, Attempt: attempt, StartedAt: startedAt}
	if w.Hook != nil {
		w.Hook.OnStart(ctx, event)
	}

	_, err := w.Dispatcher.Dispatch(ctx, msg.Action)
	event.Duration = time.Since(startedAt)
	event.Err = err

	if err == nil {
		delete(w.attempts, msg.JobID)
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			logger.Error("ack delivery failed", "job_id", msg.JobID, "error", ackErr)
		}
		if w.Hook != nil {
			w.Hook.OnSuccess(ctx, event)
		}
		return
	}

	maxAttempts := w.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if attempt >= maxAttempts {
		delete(w.attempts, msg.JobID)
		logger.Error("action job exhausted retries",
			"job_id", msg.JobID,
			"integration", msg.Action.Integration,
			"operation", msg.Action.Operation,
			"attempts", attempt,
			"error", err,
		)
		if nackErr := delivery.Nack(ctx, core.JobNackOptions{DeadLetter: true, Reason: err.Error()}); nackErr != nil {
			logger.Error("dead-letter delivery failed", "job_id", msg.JobID, "error", nackErr)
		}
		if w.Hook != nil {
			w.Hook.OnFailure(ctx, event)
		}
		return
	}

	event.Delay = w.RetryDelay
	logger.Info("action job failed, requeueing",
		"job_id", msg.JobID,
		"attempt", attempt,
		"delay", w.RetryDelay.String(),
		"error", err,
	)
	if nackErr := delivery.Nack(ctx, core.JobNackOptions{
		Delay:   w.RetryDelay,
		Requeue: true,
		Reason:  err.Error(),
	}); nackErr != nil {
		logger.Error("requeue delivery failed", "job_id", msg.JobID, "error", nackErr)
	}
	if w.Hook != nil {
		w.Hook.OnRetry(ctx, event)
	}
}
