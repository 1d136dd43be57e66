package webhooks

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-autohub/core"
	"github.com/goliatone/go-autohub/observability"
)

// HeaderEventID carries the provider-assigned delivery identifier used for
// idempotency.
const HeaderEventID = "X-Clockify-Event-Id"

// Delivery is one inbound webhook request, already read off the wire.
type Delivery struct {
	Headers    map[string]string
	RemoteAddr string
	Body       []byte
}

// Receipt is the processing outcome returned to the provider.
type Receipt struct {
	Received  bool                 `json:"received"`
	Duplicate bool                 `json:"duplicate"`
	EventID   string               `json:"eventId,omitempty"`
	Event     core.NormalizedEvent `json:"event"`
}

// Processor runs the inbound webhook pipeline: shared-secret check, IP
// allowlist, payload parse, idempotency check, then structural
// classification. Verification failures short-circuit before the cache is
// touched so rejected deliveries never consume dedupe slots.
type Processor struct {
	Secret    *SharedSecretVerifier
	Allowlist *IPAllowlist
	Cache     *EventCache
	Recorder  core.ActivityRecorder
	Metrics   *observability.Metrics
	Logger    core.Logger
	Now       func() time.Time
}

// NewProcessor builds a Processor with a default-sized dedupe cache.
func NewProcessor(secret *SharedSecretVerifier, allowlist *IPAllowlist, cache *EventCache) *Processor {
	if cache == nil {
		cache = NewEventCache(DefaultCacheSize)
	}
	return &Processor{
		Secret:    secret,
		Allowlist: allowlist,
		Cache:     cache,
		Logger:    glog.Nop(),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// Process verifies and classifies one delivery.
func (p *Processor) Process(ctx context.Context, delivery Delivery) (Receipt, error) {
	if p == nil {
		return Receipt{}, goerrors.New("webhooks: processor not configured", goerrors.CategoryInternal).
			WithTextCode(core.ErrorCodeInternal)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := p.Secret.Verify(delivery.Headers); err != nil {
		return Receipt{}, err
	}
	if err := p.Allowlist.Verify(ClientIP(delivery.Headers, delivery.RemoteAddr)); err != nil {
		return Receipt{}, err
	}

	var payload map[string]any
	if err := json.Unmarshal(delivery.Body, &payload); err != nil {
		return Receipt{}, goerrors.Wrap(err, goerrors.CategoryValidation, "webhook body is not a JSON object").
			WithCode(http.StatusBadRequest).
			WithTextCode(core.ErrorCodeValidation)
	}

	eventID := strings.TrimSpace(headerValue(delivery.Headers, HeaderEventID))
	duplicate := false
	if p.Cache != nil {
		duplicate = p.Cache.CheckAndRecord(eventID)
	}
	if duplicate {
		p.Metrics.Inc(observability.MetricWebhookDuplicates)
	}

	event := Classify(payload)
	receipt := Receipt{
		Received:  true,
		Duplicate: duplicate,
		EventID:   eventID,
		Event:     event,
	}

	p.record(ctx, receipt, delivery.Body)
	return receipt, nil
}

// record persists delivery activity on a best-effort basis.
func (p *Processor) record(ctx context.Context, receipt Receipt, body []byte) {
	if p.Recorder == nil {
		return
	}
	now := p.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	activity := core.WebhookEventActivity{
		EventID:     receipt.EventID,
		EventType:   string(receipt.Event.EventType),
		WorkspaceID: receipt.Event.WorkspaceID,
		UserID:      receipt.Event.UserID,
		Duplicate:   receipt.Duplicate,
		Payload:     body,
		ReceivedAt:  now(),
	}
	if err := p.Recorder.RecordWebhookEvent(ctx, activity); err != nil {
		glog.Ensure(p.Logger).Error("record webhook event failed",
			"event_id", receipt.EventID,
			"error", err,
		)
	}
}
