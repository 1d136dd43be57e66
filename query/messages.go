package query

import "fmt"

const (
	TypeListWebhookEvents = "autohub.query.webhook_events.list"
	TypeListActionRuns    = "autohub.query.action_runs.list"
)

// ListWebhookEventsMessage requests the newest webhook receipts. A zero
// limit uses the store default page size.
type ListWebhookEventsMessage struct {
	Limit int
}

func (ListWebhookEventsMessage) Type() string { return TypeListWebhookEvents }

func (m ListWebhookEventsMessage) Validate() error {
	if m.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	return nil
}

// ListActionRunsMessage requests the newest action run records.
type ListActionRunsMessage struct {
	Limit int
}

func (ListActionRunsMessage) Type() string { return TypeListActionRuns }

func (m ListActionRunsMessage) Validate() error {
	if m.Limit < 0 {
		return fmt.Errorf("query: limit must be >= 0")
	}
	return nil
}
