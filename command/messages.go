package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-autohub/core"
)

const (
	TypeRunAction      = "autohub.command.action.run"
	TypeEnqueueAction  = "autohub.command.action.enqueue"
	TypeScheduleAction = "autohub.command.action.schedule"
)

// RunActionMessage dispatches one action synchronously.
type RunActionMessage struct {
	Action core.Action
}

func (RunActionMessage) Type() string { return TypeRunAction }

func (m RunActionMessage) Validate() error {
	return m.Action.Validate()
}

// EnqueueActionMessage defers one action onto the job queue.
type EnqueueActionMessage struct {
	Job core.ActionJobMessage
}

func (EnqueueActionMessage) Type() string { return TypeEnqueueAction }

func (m EnqueueActionMessage) Validate() error {
	return m.Job.Action.Validate()
}

// ScheduleActionMessage registers a recurring action on a cron expression.
type ScheduleActionMessage struct {
	Cron   string
	Action core.Action
}

func (ScheduleActionMessage) Type() string { return TypeScheduleAction }

func (m ScheduleActionMessage) Validate() error {
	if strings.TrimSpace(m.Cron) == "" {
		return fmt.Errorf("command: cron expression is required")
	}
	return m.Action.Validate()
}
