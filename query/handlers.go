package query

import (
	"context"

	"github.com/goliatone/go-autohub/core"
)

// ActivityReader exposes the recent-activity pages recorded by the hub.
type ActivityReader interface {
	RecentWebhookEvents(ctx context.Context, limit int) ([]core.WebhookEventActivity, error)
	RecentActionRuns(ctx context.Context, limit int) ([]core.ActionRunActivity, error)
}

type ListWebhookEventsQuery struct {
	reader ActivityReader
}

func NewListWebhookEventsQuery(reader ActivityReader) *ListWebhookEventsQuery {
	return &ListWebhookEventsQuery{reader: reader}
}

func (q *ListWebhookEventsQuery) Query(
	ctx context.Context,
	msg ListWebhookEventsMessage,
) ([]core.WebhookEventActivity, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: activity reader is required")
	}
	return q.reader.RecentWebhookEvents(ctx, msg.Limit)
}

type ListActionRunsQuery struct {
	reader ActivityReader
}

func NewListActionRunsQuery(reader ActivityReader) *ListActionRunsQuery {
	return &ListActionRunsQuery{reader: reader}
}

func (q *ListActionRunsQuery) Query(
	ctx context.Context,
	msg ListActionRunsMessage,
) ([]core.ActionRunActivity, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: activity reader is required")
	}
	return q.reader.RecentActionRuns(ctx, msg.Limit)
}
