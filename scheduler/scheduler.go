package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/goliatone/go-autohub/core"
)

// CronSpec is a structured five-field cron schedule. Empty fields default
// to "*".
type CronSpec struct {
	Minute     string `json:"minute,omitempty"`
	Hour       string `json:"hour,omitempty"`
	DayOfMonth string `json:"dayOfMonth,omitempty"`
	Month      string `json:"month,omitempty"`
	DayOfWeek  string `json:"dayOfWeek,omitempty"`
}

// Expression renders the fields as a five-field cron expression, with
// blanks defaulting to "*".
func (s CronSpec) Expression() string {
	fields := []string{s.Minute, s.Hour, s.DayOfMonth, s.Month, s.DayOfWeek}
	for i, field := range fields {
		if strings.TrimSpace(field) == "" {
			fields[i] = "*"
		} else {
			fields[i] = strings.TrimSpace(field)
		}
	}
	return strings.Join(fields, " ")
}

// Entry describes one registered schedule.
type Entry struct {
	ID      string      `json:"id"`
	Cron    string      `json:"cron"`
	Action  core.Action `json:"action"`
	NextRun time.Time   `json:"nextRun"`
}

// Scheduler fires actions onto the job queue on cron triggers. Execution
// stays with the queue worker so scheduled and ad-hoc actions share one
// dispatch path.
type Scheduler struct {
	Enqueuer core.ActionEnqueuer
	Logger   core.Logger

	mu      sync.Mutex
	runner  *cron.Cron
	entries map[string]*scheduleEntry
}

type scheduleEntry struct {
	cronID cron.EntryID
	cron   string
	action core.Action
}

func New(enqueuer core.ActionEnqueuer, logger core.Logger) *Scheduler {
	return &Scheduler{
		Enqueuer: enqueuer,
		Logger:   glog.Ensure(logger),
		runner:   cron.New(),
		entries:  map[string]*scheduleEntry{},
	}
}

// Schedule registers a recurring action and returns the entry ID.
func (s *Scheduler) Schedule(_ context.Context, cronExpr string, action core.Action) (string, error) {
	if s == nil || s.Enqueuer == nil {
		return "", fmt.Errorf("scheduler: enqueuer is required")
	}
	if err := action.Validate(); err != nil {
		return "", err
	}
	cronExpr = strings.TrimSpace(cronExpr)

	entryID := uuid.NewString()
	jobAction := action
	logger := glog.Ensure(s.Logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.runner.AddFunc(cronExpr, func() {
		msg := &core.ActionJobMessage{
			JobID:          "schedule." + entryID,
			Action:         jobAction,
			IdempotencyKey: entryID + "@" + strconv.FormatInt(time.Now().UTC().Unix(), 10),
		}
		if err := s.Enqueuer.Enqueue(context.Background(), msg); err != nil {
			logger.Error("enqueue scheduled action failed",
				"entry_id", entryID,
				"integration", jobAction.Integration,
				"operation", jobAction.Operation,
				"error", err,
			)
		}
	})
	if err != nil {
		return "", fmt.Errorf("scheduler: invalid cron expression %q: %w", cronExpr, err)
	}
	s.entries[entryID] = &scheduleEntry{cronID: id, cron: cronExpr, action: jobAction}
	logger.Info("schedule registered",
		"entry_id", entryID,
		"cron", cronExpr,
		"integration", jobAction.Integration,
		"operation", jobAction.Operation,
	)
	return entryID, nil
}

// ScheduleSpec registers a structured spec.
func (s *Scheduler) ScheduleSpec(ctx context.Context, spec CronSpec, action core.Action) (string, error) {
	return s.Schedule(ctx, spec.Expression(), action)
}

// Remove drops a registered schedule.
func (s *Scheduler) Remove(entryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[entryID]
	if !ok {
		return false
	}
	s.runner.Remove(entry.cronID)
	delete(s.entries, entryID)
	return true
}

// Entries lists registered schedules with their next run time.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for entryID, entry := range s.entries {
		cronEntry := s.runner.Entry(entry.cronID)
		out = append(out, Entry{
			ID:      entryID,
			Cron:    entry.cron,
			Action:  entry.action,
			NextRun: cronEntry.Next,
		})
	}
	return out
}

// Start begins firing triggers.
func (s *Scheduler) Start() {
	s.runner.Start()
}

// Stop halts triggers and waits for in-flight enqueue callbacks.
func (s *Scheduler) Stop() {
	<-s.runner.Stop().Done()
}
