package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIntegrationNotRegistered = errors.New("core: integration not registered")
	ErrOperationUnsupported     = errors.New("core: operation not supported")
	ErrInvalidAction            = errors.New("core: invalid action")
)

// Action is a normalized action descriptor produced by the resolver and
// consumed exactly once by the dispatcher. Immutable after creation.
type Action struct {
	Integration string
	Operation   string
	Params      map[string]any
}

func NewAction(integration string, operation string, params map[string]any) Action {
	return Action{
		Integration: strings.TrimSpace(integration),
		Operation:   strings.TrimSpace(operation),
		Params:      cloneParams(params),
	}
}

func (a Action) Validate() error {
	if strings.TrimSpace(a.Integration) == "" {
		return fmt.Errorf("%w: integration is required", ErrInvalidAction)
	}
	if strings.TrimSpace(a.Operation) == "" {
		return fmt.Errorf("%w: operation is required", ErrInvalidAction)
	}
	return nil
}

func cloneParams(params map[string]any) map[string]any {
	if len(params) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(params))
	for key, value := range params {
		out[key] = value
	}
	return out
}

type EventType string

const (
	EventTypeTimeEntry       EventType = "TIME_ENTRY"
	EventTypeNewTimerStarted EventType = "NEW_TIMER_STARTED"
	EventTypeProject         EventType = "PROJECT"
	EventTypeApprovalRequest EventType = "APPROVAL_REQUEST"
	EventTypeClient          EventType = "CLIENT"
	EventTypeTag             EventType = "TAG"
	EventTypeUser            EventType = "USER"
	EventTypeExpense         EventType = "EXPENSE"
	EventTypeUnknown         EventType = "UNKNOWN"
)

// NormalizedEvent is derived from a webhook payload by structural
// classification. It is stateless and recomputed per request.
type NormalizedEvent struct {
	EventType   EventType      `json:"eventType"`
	ID          string         `json:"id,omitempty"`
	WorkspaceID string         `json:"workspaceId,omitempty"`
	UserID      string         `json:"userId,omitempty"`
	RawPayload  map[string]any `json:"rawPayload"`
}
