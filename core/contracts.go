package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Integration is a named outbound adapter. Execute returns a structured
// result map (the "ok" envelope) or a classified error; HandleWebhook
// answers integration-specific webhook envelopes (challenges etc.).
type Integration interface {
	ID() string
	Operations() []string
	Execute(ctx context.Context, operation string, params map[string]any) (map[string]any, error)
	HandleWebhook(ctx context.Context, payload map[string]any) (map[string]any, error)
}

type Registry interface {
	Register(integration Integration) error
	Get(integrationID string) (Integration, bool)
	List() []Integration
	Names() []string
}

// ActionDispatcher routes an Action to the named integration adapter.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action Action) (map[string]any, error)
}

type TransportRequest struct {
	Method      string
	URL         string
	Headers     map[string]string
	Query       map[string]string
	Body        []byte
	Metadata    map[string]any
	Timeout     time.Duration
	Idempotency string
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// ActionJobMessage is the unit of deferred action execution carried by the
// scheduler queue.
type ActionJobMessage struct {
	JobID          string
	Action         Action
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type ActionDelivery interface {
	Message() *ActionJobMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type ActionEnqueuer interface {
	Enqueue(ctx context.Context, msg *ActionJobMessage) error
}

type ActionDequeuer interface {
	Dequeue(ctx context.Context) (ActionDelivery, error)
}

type JobWorkerEvent struct {
	Message   *ActionJobMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

// WebhookEventActivity and ActionRunActivity are best-effort observability
// records; recorders must never fail a request.
type WebhookEventActivity struct {
	EventID     string
	EventType   string
	WorkspaceID string
	UserID      string
	Duplicate   bool
	Payload     []byte
	ReceivedAt  time.Time
}

type ActionRunActivity struct {
	Integration string
	Operation   string
	Params      map[string]any
	Status      string
	Error       string
	StartedAt   time.Time
	Duration    time.Duration
}

type ActivityRecorder interface {
	RecordWebhookEvent(ctx context.Context, in WebhookEventActivity) error
	RecordActionRun(ctx context.Context, in ActionRunActivity) error
}
