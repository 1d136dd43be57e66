package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-autohub/core"
)

// ActivityStore persists webhook receipts and action runs for diagnostics.
// Recording is best-effort at the call sites; the store itself reports
// failures normally.
type ActivityStore struct {
	db          *bun.DB
	webhookRepo repository.Repository[*webhookEventRecord]
	actionRepo  repository.Repository[*actionRunRecord]
}

func NewActivityStore(db *bun.DB) (*ActivityStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	webhookRepo := repository.NewRepository[*webhookEventRecord](db, webhookEventHandlers())
	if validator, ok := webhookRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid webhook event repository wiring: %w", err)
		}
	}
	actionRepo := repository.NewRepository[*actionRunRecord](db, actionRunHandlers())
	if validator, ok := actionRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid action run repository wiring: %w", err)
		}
	}
	return &ActivityStore{db: db, webhookRepo: webhookRepo, actionRepo: actionRepo}, nil
}

// EnsureSchema creates the activity tables when they are missing. In-memory
// sqlite deployments rebuild the schema on every start.
func (s *ActivityStore) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	if _, err := s.db.NewCreateTable().Model((*webhookEventRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: create webhook events table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*actionRunRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("sqlstore: create action runs table: %w", err)
	}
	return nil
}

func (s *ActivityStore) RecordWebhookEvent(ctx context.Context, in core.WebhookEventActivity) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	receivedAt := in.ReceivedAt.UTC()
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}
	record := &webhookEventRecord{
		ID:          uuid.NewString(),
		EventID:     strings.TrimSpace(in.EventID),
		EventType:   strings.TrimSpace(in.EventType),
		WorkspaceID: strings.TrimSpace(in.WorkspaceID),
		UserID:      strings.TrimSpace(in.UserID),
		Duplicate:   in.Duplicate,
		Payload:     in.Payload,
		ReceivedAt:  receivedAt,
	}
	if record.EventType == "" {
		record.EventType = string(core.EventTypeUnknown)
	}
	_, err := s.db.NewInsert().Model(record).Exec(ctx)
	return err
}

func (s *ActivityStore) RecordActionRun(ctx context.Context, in core.ActionRunActivity) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: activity store is not configured")
	}
	startedAt := in.StartedAt.UTC()
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	record := &actionRunRecord{
		ID:          uuid.NewString(),
		Integration: strings.TrimSpace(in.Integration),
		Operation:   strings.TrimSpace(in.Operation),
		Params:      in.Params,
		Status:      strings.TrimSpace(in.Status),
		Error:       strings.TrimSpace(in.Error),
		StartedAt:   startedAt,
		DurationMS:  in.Duration.Milliseconds(),
	}
	if record.Status == "" {
		record.Status = "unknown"
	}
	_, err := s.db.NewInsert().Model(record).Exec(ctx)
	return err
}

// RecentWebhookEvents returns the newest webhook receipts, newest first.
func (s *ActivityStore) RecentWebhookEvents(ctx context.Context, limit int) ([]core.WebhookEventActivity, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: activity store is not configured")
	}
	if limit <= 0 {
		limit = 25
	}
	var records []*webhookEventRecord
	err := s.db.NewSelect().
		Model(&records).
		Order("received_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.WebhookEventActivity, 0, len(records))
	for _, record := range records {
		out = append(out, core.WebhookEventActivity{
			EventID:     record.EventID,
			EventType:   record.EventType,
			WorkspaceID: record.WorkspaceID,
			UserID:      record.UserID,
			Duplicate:   record.Duplicate,
			Payload:     record.Payload,
			ReceivedAt:  record.ReceivedAt,
		})
	}
	return out, nil
}

// RecentActionRuns returns the newest action runs, newest first.
func (s *ActivityStore) RecentActionRuns(ctx context.Context, limit int) ([]core.ActionRunActivity, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: activity store is not configured")
	}
	if limit <= 0 {
		limit = 25
	}
	var records []*actionRunRecord
	err := s.db.NewSelect().
		Model(&records).
		Order("started_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.ActionRunActivity, 0, len(records))
	for _, record := range records {
		out = append(out, core.ActionRunActivity{
			Integration: record.Integration,
			Operation:   record.Operation,
			Params:      record.Params,
			Status:      record.Status,
			Error:       record.Error,
			StartedAt:   record.StartedAt,
			Duration:    time.Duration(record.DurationMS) * time.Millisecond,
		})
	}
	return out, nil
}

var _ core.ActivityRecorder = (*ActivityStore)(nil)
