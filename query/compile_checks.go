package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-autohub/core"
)

var (
	_ gocmd.Querier[ListWebhookEventsMessage, []core.WebhookEventActivity] = (*ListWebhookEventsQuery)(nil)
	_ gocmd.Querier[ListActionRunsMessage, []core.ActionRunActivity]      = (*ListActionRunsQuery)(nil)
)
