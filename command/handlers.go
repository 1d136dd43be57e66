package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-autohub/core"
)

// ActionScheduler registers a recurring action and returns its entry ID.
type ActionScheduler interface {
	Schedule(ctx context.Context, cron string, action core.Action) (string, error)
}

// RunActionCommand dispatches an action and stores the integration result
// for callers that collect it from the context.
type RunActionCommand struct {
	dispatcher core.ActionDispatcher
}

func NewRunActionCommand(dispatcher core.ActionDispatcher) *RunActionCommand {
	return &RunActionCommand{dispatcher: dispatcher}
}

func (c *RunActionCommand) Execute(ctx context.Context, msg RunActionMessage) error {
	if c == nil || c.dispatcher == nil {
		return commandDependencyError("command: action dispatcher is required")
	}
	out, err := c.dispatcher.Dispatch(ctx, msg.Action)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

// EnqueueActionCommand defers an action onto the job queue.
type EnqueueActionCommand struct {
	enqueuer core.ActionEnqueuer
}

func NewEnqueueActionCommand(enqueuer core.ActionEnqueuer) *EnqueueActionCommand {
	return &EnqueueActionCommand{enqueuer: enqueuer}
}

func (c *EnqueueActionCommand) Execute(ctx context.Context, msg EnqueueActionMessage) error {
	if c == nil || c.enqueuer == nil {
		return commandDependencyError("command: action enqueuer is required")
	}
	job := msg.Job
	return c.enqueuer.Enqueue(ctx, &job)
}

// ScheduleActionCommand registers a recurring action and stores the entry ID.
type ScheduleActionCommand struct {
	scheduler ActionScheduler
}

func NewScheduleActionCommand(scheduler ActionScheduler) *ScheduleActionCommand {
	return &ScheduleActionCommand{scheduler: scheduler}
}

func (c *ScheduleActionCommand) Execute(ctx context.Context, msg ScheduleActionMessage) error {
	if c == nil || c.scheduler == nil {
		return commandDependencyError("command: action scheduler is required")
	}
	entryID, err := c.scheduler.Schedule(ctx, msg.Cron, msg.Action)
	if err != nil {
		return err
	}
	storeResult(ctx, entryID)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
