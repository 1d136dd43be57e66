package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type webhookEventRecord struct {
	bun.BaseModel `bun:"table:autohub_webhook_events,alias:awe"`

	ID          string    `bun:"id,pk"`
	EventID     string    `bun:"event_id"`
	EventType   string    `bun:"event_type,notnull"`
	WorkspaceID string    `bun:"workspace_id"`
	UserID      string    `bun:"user_id"`
	Duplicate   bool      `bun:"duplicate,notnull"`
	Payload     []byte    `bun:"payload"`
	ReceivedAt  time.Time `bun:"received_at,nullzero,notnull,default:current_timestamp"`
}

type actionRunRecord struct {
	bun.BaseModel `bun:"table:autohub_action_runs,alias:aar"`

	ID          string         `bun:"id,pk"`
	Integration string         `bun:"integration,notnull"`
	Operation   string         `bun:"operation,notnull"`
	Params      map[string]any `bun:"params,type:jsonb"`
	Status      string         `bun:"status,notnull"`
	Error       string         `bun:"error"`
	StartedAt   time.Time      `bun:"started_at,nullzero,notnull,default:current_timestamp"`
	DurationMS  int64          `bun:"duration_ms,notnull"`
}
