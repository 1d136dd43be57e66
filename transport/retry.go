package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-autohub/core"
)

const (
	// DefaultMaxAttempts bounds retries against a flaky upstream.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay seeds the exponential backoff schedule: the wait
	// before attempt n+1 is BaseDelay << n (0.5s, 1s, 2s, ...).
	DefaultBaseDelay = 500 * time.Millisecond
)

// Operation performs a single upstream exchange. The Runner decides whether
// the outcome warrants another attempt.
type Operation func(ctx context.Context) (core.TransportResponse, error)

// Runner executes an Operation with bounded exponential backoff. Transport
// failures, 429 and 5xx responses are retried; any other status is
// classified immediately and never retried.
type Runner struct {
	// Integration names the upstream for error metadata and logs.
	Integration string
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      core.Logger
	// Sleep is injectable for tests. The default honors ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRunner returns a Runner with the default backoff schedule.
func NewRunner(integration string, logger core.Logger) *Runner {
	return &Runner{
		Integration: normalizeIntegration(integration),
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Logger:      glog.Ensure(logger),
		Sleep:       sleepContext,
	}
}

// Run drives op through the backoff schedule and returns the first
// successful response, or the classified error of the final attempt.
func (r *Runner) Run(ctx context.Context, op Operation) (core.TransportResponse, error) {
	if op == nil {
		return core.TransportResponse{}, transportError(
			"transport: runner requires an operation",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"integration": r.integrationName()},
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	baseDelay := r.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	logger := glog.Ensure(r.Logger)
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return core.TransportResponse{}, transportWrapError(
				err,
				goerrors.CategoryOperation,
				"transport: request canceled",
				http.StatusServiceUnavailable,
				map[string]any{"integration": r.integrationName(), "attempt": attempt + 1},
			)
		}

		res, err := op(ctx)
		if err != nil {
			lastErr = err
			if attempt+1 >= maxAttempts {
				break
			}
			delay := baseDelay << attempt
			logger.Info("upstream request failed, retrying",
				"integration", r.integrationName(),
				"attempt", attempt+1,
				"delay", delay.String(),
				"error", err,
			)
			if err := sleep(ctx, delay); err != nil {
				return core.TransportResponse{}, transportWrapError(
					err,
					goerrors.CategoryOperation,
					"transport: backoff interrupted",
					http.StatusServiceUnavailable,
					map[string]any{"integration": r.integrationName(), "attempt": attempt + 1},
				)
			}
			continue
		}

		if !Retryable(res.StatusCode) {
			return res, Classify(res)
		}

		lastErr = classifyStatus(res.StatusCode, res.Body)
		if attempt+1 >= maxAttempts {
			break
		}
		delay := baseDelay << attempt
		logger.Info("upstream returned retryable status",
			"integration", r.integrationName(),
			"attempt", attempt+1,
			"status_code", res.StatusCode,
			"delay", delay.String(),
		)
		if err := sleep(ctx, delay); err != nil {
			return core.TransportResponse{}, transportWrapError(
				err,
				goerrors.CategoryOperation,
				"transport: backoff interrupted",
				http.StatusServiceUnavailable,
				map[string]any{"integration": r.integrationName(), "attempt": attempt + 1},
			)
		}
	}

	var richErr *goerrors.Error
	if goerrors.As(lastErr, &richErr) {
		return core.TransportResponse{}, lastErr
	}
	return core.TransportResponse{}, transportWrapError(
		lastErr,
		goerrors.CategoryExternal,
		fmt.Sprintf("transport: %s unavailable after %d attempts", r.integrationName(), maxAttempts),
		http.StatusBadGateway,
		map[string]any{"integration": r.integrationName(), "attempts": maxAttempts},
	)
}

func (r *Runner) integrationName() string {
	if r == nil {
		return "unknown"
	}
	return normalizeIntegration(r.Integration)
}

func normalizeIntegration(name string) string {
	if trimmed := strings.ToLower(strings.TrimSpace(name)); trimmed != "" {
		return trimmed
	}
	return "unknown"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
