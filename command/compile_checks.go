package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[RunActionMessage]      = (*RunActionCommand)(nil)
	_ gocmd.Commander[EnqueueActionMessage]  = (*EnqueueActionCommand)(nil)
	_ gocmd.Commander[ScheduleActionMessage] = (*ScheduleActionCommand)(nil)
)
