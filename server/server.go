package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-autohub/actions"
	"github.com/goliatone/go-autohub/core"
	"github.com/goliatone/go-autohub/observability"
	"github.com/goliatone/go-autohub/query"
	"github.com/goliatone/go-autohub/ratelimit"
	"github.com/goliatone/go-autohub/scheduler"
	"github.com/goliatone/go-autohub/webhooks"
)

// ReadyCheck reports whether one external dependency is configured.
type ReadyCheck struct {
	Name  string
	Ready func() bool
}

// Server wires the HTTP surface: webhook ingestion, action parsing and
// execution, schedule management, and health probes. All responses use the
// shared envelope.
type Server struct {
	Logger       core.Logger
	Processor    *webhooks.Processor
	Registry     core.Registry
	Dispatcher   core.ActionDispatcher
	Resolver     *actions.Resolver
	Scheduler    *scheduler.Scheduler
	Limiter      *ratelimit.Limiter
	Activity     query.ActivityReader
	Metrics      *observability.Metrics
	CORSOrigins  []string
	MaxBodyBytes int64
	ReadyChecks  []ReadyCheck
}

// Handler builds the routed handler with the middleware chain applied:
// request id, logging, CORS, body limit, then rate limiting.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("POST /webhooks/clockify", s.handleClockifyWebhook)
	mux.HandleFunc("POST /webhooks/{integration}", s.handleIntegrationWebhook)
	mux.HandleFunc("POST /actions/parse", s.handleParse)
	mux.HandleFunc("POST /actions/run", s.handleRun)
	mux.HandleFunc("POST /schedules", s.handleCreateSchedule)
	mux.HandleFunc("GET /schedules", s.handleListSchedules)
	mux.HandleFunc("GET /activity/webhooks", s.handleWebhookActivity)
	mux.HandleFunc("GET /activity/actions", s.handleActionActivity)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = withRateLimit(s.Limiter, s.Metrics, handler)
	handler = withBodyLimit(s.MaxBodyBytes, handler)
	handler = withCORS(s.CORSOrigins, handler)
	handler = withRequestLog(s.Logger, handler)
	handler = withRequestID(handler)
	return handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{"status": "healthy"}, RequestIDFromContext(r.Context()))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	ready := true
	for _, check := range s.ReadyChecks {
		if check.Ready != nil && check.Ready() {
			checks[check.Name] = "configured"
			continue
		}
		checks[check.Name] = "missing"
		ready = false
	}
	writeSuccess(w, map[string]any{
		"ready":  ready,
		"checks": checks,
	}, RequestIDFromContext(r.Context()))
}

// handleClockifyWebhook runs the full inbound pipeline: verification,
// dedupe, and structural classification.
func (s *Server) handleClockifyWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())
	if s.Processor == nil {
		writeError(w, goerrors.New("webhook processor is not configured", goerrors.CategoryInternal).
			WithTextCode(core.ErrorCodeInternal), requestID)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, goerrors.Wrap(err, goerrors.CategoryBadInput, "read webhook body").
			WithTextCode(core.ErrorCodeValidation), requestID)
		return
	}
	receipt, err := s.Processor.Process(r.Context(), webhooks.Delivery{
		Headers:    flattenRequestHeaders(r.Header),
		RemoteAddr: r.RemoteAddr,
		Body:       body,
	})
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, receipt, requestID)
}

type webhookEnvelope struct {
	Payload map[string]any `json:"payload"`
}

// handleIntegrationWebhook hands the payload to the named integration's
// webhook hook. Clockify deliveries should use the dedicated endpoint.
func (s *Server) handleIntegrationWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())
	integrationID := strings.TrimSpace(r.PathValue("integration"))

	var envelope webhookEnvelope
	if err := decodeBody(r, &envelope); err != nil {
		writeError(w, err, requestID)
		return
	}
	integration, ok := s.lookupIntegration(integrationID)
	if !ok {
		writeError(w, goerrors.New(
			fmt.Sprintf("unknown integration %q", integrationID),
			goerrors.CategoryNotFound,
		).WithTextCode(core.ErrorCodeNotFound), requestID)
		return
	}
	result, err := integration.HandleWebhook(r.Context(), envelope.Payload)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, result, requestID)
}

type parseRequest struct {
	Text string `json:"text"`
}

// handleParse turns instruction text into an action. The llm query flag
// enables the language-model strategy with rule-grammar fallback; without
// it the rule grammar runs alone.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())

	var req parseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, requestID)
		return
	}

	var (
		action   core.Action
		strategy string
	)
	if isTruthy(r.URL.Query().Get("llm")) && s.Resolver != nil {
		outcome, err := s.Resolver.Resolve(r.Context(), req.Text)
		if err != nil {
			writeError(w, err, requestID)
			return
		}
		action = outcome.Action
		strategy = outcome.Strategy
	} else {
		parsed, err := actions.ParseRule(req.Text)
		if err != nil {
			writeError(w, err, requestID)
			return
		}
		action = parsed
		strategy = actions.StrategyRule
	}

	writeSuccess(w, map[string]any{
		"integration": action.Integration,
		"operation":   action.Operation,
		"params":      action.Params,
		"parser":      strategy,
	}, requestID)
}

type runRequest struct {
	Integration string         `json:"integration"`
	Operation   string         `json:"operation"`
	Params      map[string]any `json:"params"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())
	if s.Dispatcher == nil {
		writeError(w, goerrors.New("action dispatcher is not configured", goerrors.CategoryInternal).
			WithTextCode(core.ErrorCodeInternal), requestID)
		return
	}
	var req runRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, requestID)
		return
	}
	result, err := s.Dispatcher.Dispatch(r.Context(), core.NewAction(req.Integration, req.Operation, req.Params))
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, result, requestID)
}

type scheduleRequest struct {
	Cron        scheduler.CronSpec `json:"cron"`
	Expression  string             `json:"expression"`
	Integration string             `json:"integration"`
	Operation   string             `json:"operation"`
	Params      map[string]any     `json:"params"`
}

// handleCreateSchedule registers a recurring action. Callers provide either
// a cron field object or a raw five-field expression.
func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())
	if s.Scheduler == nil {
		writeError(w, goerrors.New("scheduler is not configured", goerrors.CategoryInternal).
			WithTextCode(core.ErrorCodeInternal), requestID)
		return
	}
	var req scheduleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err, requestID)
		return
	}
	expression := strings.TrimSpace(req.Expression)
	if expression == "" {
		expression = req.Cron.Expression()
	}
	action := core.NewAction(req.Integration, req.Operation, req.Params)
	entryID, err := s.Scheduler.Schedule(r.Context(), expression, action)
	if err != nil {
		writeError(w, goerrors.Wrap(err, goerrors.CategoryBadInput, "register schedule").
			WithTextCode(core.ErrorCodeValidation), requestID)
		return
	}
	writeSuccess(w, map[string]any{
		"scheduled": true,
		"id":        entryID,
		"cron":      expression,
	}, requestID)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())
	if s.Scheduler == nil {
		writeError(w, goerrors.New("scheduler is not configured", goerrors.CategoryInternal).
			WithTextCode(core.ErrorCodeInternal), requestID)
		return
	}
	entries := s.Scheduler.Entries()
	writeSuccess(w, map[string]any{"schedules": entries}, requestID)
}

// handleWebhookActivity lists recent webhook receipts, newest first. The
// route requires a configured activity store.
func (s *Server) handleWebhookActivity(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())
	if s.Activity == nil {
		writeError(w, goerrors.New("activity store is not configured", goerrors.CategoryNotFound).
			WithTextCode(core.ErrorCodeNotFound), requestID)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	msg := query.ListWebhookEventsMessage{Limit: limit}
	if err := msg.Validate(); err != nil {
		writeError(w, err, requestID)
		return
	}
	events, err := query.NewListWebhookEventsQuery(s.Activity).Query(r.Context(), msg)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, map[string]any{"events": events}, requestID)
}

func (s *Server) handleActionActivity(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())
	if s.Activity == nil {
		writeError(w, goerrors.New("activity store is not configured", goerrors.CategoryNotFound).
			WithTextCode(core.ErrorCodeNotFound), requestID)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	msg := query.ListActionRunsMessage{Limit: limit}
	if err := msg.Validate(); err != nil {
		writeError(w, err, requestID)
		return
	}
	runs, err := query.NewListActionRunsQuery(s.Activity).Query(r.Context(), msg)
	if err != nil {
		writeError(w, err, requestID)
		return
	}
	writeSuccess(w, map[string]any{"runs": runs}, requestID)
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, goerrors.New("limit must be a non-negative integer", goerrors.CategoryBadInput).
			WithTextCode(core.ErrorCodeValidation)
	}
	return limit, nil
}

func (s *Server) lookupIntegration(integrationID string) (core.Integration, bool) {
	if s.Registry == nil {
		return nil, false
	}
	return s.Registry.Get(integrationID)
}

// decodeBody parses a JSON request body into out, translating failures to
// validation errors.
func decodeBody(r *http.Request, out any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "read request body").
			WithTextCode(core.ErrorCodeValidation)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return goerrors.New("request body is required", goerrors.CategoryBadInput).
			WithTextCode(core.ErrorCodeValidation)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "request body is not valid JSON").
			WithTextCode(core.ErrorCodeValidation)
	}
	return nil
}

func flattenRequestHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for name, values := range header {
		if len(values) == 0 {
			continue
		}
		out[name] = values[0]
	}
	return out
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
