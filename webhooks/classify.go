package webhooks

import (
	"github.com/goliatone/go-autohub/core"
)

// Classify infers the semantic event type of a webhook payload from its
// shape. Providers do not send a trusted discriminant field, so this is a
// first-match-wins cascade over key presence; the order is load-bearing
// because some shapes overlap (a client payload can also satisfy the tag
// rule's key-count bound).
func Classify(payload map[string]any) core.NormalizedEvent {
	event := core.NormalizedEvent{
		EventType:   core.EventTypeUnknown,
		ID:          stringField(payload, "id"),
		WorkspaceID: stringField(payload, "workspaceId"),
		UserID:      stringField(payload, "userId"),
		RawPayload:  payload,
	}
	if len(payload) == 0 {
		return event
	}

	switch {
	case hasKeys(payload, "timeInterval", "userId"):
		if intervalEnded(payload["timeInterval"]) {
			event.EventType = core.EventTypeTimeEntry
		} else {
			event.EventType = core.EventTypeNewTimerStarted
		}
	case hasKeys(payload, "name", "tasks", "workspaceId"):
		event.EventType = core.EventTypeProject
	case hasKeys(payload, "status", "owner", "dateRange"):
		event.EventType = core.EventTypeApprovalRequest
	case hasKeys(payload, "name", "archived") && !hasKeys(payload, "tasks"):
		event.EventType = core.EventTypeClient
	case hasKeys(payload, "name", "archived", "workspaceId") && len(payload) <= 5:
		event.EventType = core.EventTypeTag
	case hasKeys(payload, "email", "settings"):
		event.EventType = core.EventTypeUser
	case hasKeys(payload, "categoryId", "quantity", "billable"):
		event.EventType = core.EventTypeExpense
	}
	return event
}

func hasKeys(payload map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := payload[key]; !ok {
			return false
		}
	}
	return true
}

// intervalEnded reports whether a timeInterval value carries a non-null end
// timestamp. A missing or null end means the timer is still running.
func intervalEnded(value any) bool {
	interval, ok := value.(map[string]any)
	if !ok {
		return false
	}
	end, ok := interval["end"]
	return ok && end != nil
}

func stringField(payload map[string]any, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}
