package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-autohub/core"
	"github.com/goliatone/go-autohub/observability"
)

// Strategy names record which parser produced an action.
const (
	StrategyLLM      = "llm"
	StrategyFallback = "fallback"
	StrategyRule     = "rule"
)

// Outcome is a resolved action tagged with the strategy that produced it.
type Outcome struct {
	Action   core.Action `json:"action"`
	Strategy string      `json:"strategy"`
}

// Completer turns a natural-language instruction into a raw model reply.
// Implementations may be unavailable (missing credential, upstream outage);
// the resolver treats any failure as a cue to fall back.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Resolver parses instruction text into an action using two strategies in
// order: the language-model completer first, then the deterministic rule
// grammar. Completer failures never propagate; they trigger the fallback.
type Resolver struct {
	Primary      Completer
	Integrations []string
	Metrics      *observability.Metrics
	Logger       core.Logger
}

func NewResolver(primary Completer, integrations []string) *Resolver {
	return &Resolver{
		Primary:      primary,
		Integrations: integrations,
		Logger:       glog.Nop(),
	}
}

const systemPromptTemplate = `You translate instructions into automation actions.
Respond with strict JSON only: {"integration": string, "operation": string, "params": object}.
Known integrations: %s.
Do not add commentary or markdown fences.`

// Resolve parses text with the primary strategy, falling back to the rule
// grammar. It fails with a parse error only when both strategies fail,
// reporting both reasons.
func (r *Resolver) Resolve(ctx context.Context, text string) (Outcome, error) {
	if r == nil {
		return Outcome{}, parseError("actions: resolver not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{}, parseError("instruction text is empty", nil)
	}

	primaryErr := r.tryPrimary(ctx, text)
	if primaryErr.action != nil {
		return Outcome{Action: *primaryErr.action, Strategy: StrategyLLM}, nil
	}
	if r.Primary != nil {
		r.Metrics.Inc(observability.MetricParserFallbacks)
	}

	action, fallbackErr := ParseRule(text)
	if fallbackErr == nil {
		return Outcome{Action: action, Strategy: StrategyFallback}, nil
	}

	return Outcome{}, parseError(
		fmt.Sprintf("primary: %s; fallback: %s", primaryErr.reason, fallbackErr.Error()),
		map[string]any{"instruction": text},
	)
}

type primaryResult struct {
	action *core.Action
	reason string
}

func (r *Resolver) tryPrimary(ctx context.Context, text string) primaryResult {
	if r.Primary == nil {
		return primaryResult{reason: "no completer configured"}
	}
	system := fmt.Sprintf(systemPromptTemplate, strings.Join(r.Integrations, ", "))
	reply, err := r.Primary.Complete(ctx, system, text)
	if err != nil {
		glog.Ensure(r.Logger).Info("primary parse unavailable, using fallback", "error", err)
		return primaryResult{reason: err.Error()}
	}
	action, err := ExtractAction(reply)
	if err != nil {
		glog.Ensure(r.Logger).Info("primary reply unusable, using fallback", "error", err)
		return primaryResult{reason: err.Error()}
	}
	return primaryResult{action: &action}
}

// ExtractAction pulls an action out of a raw model reply: the first
// top-level JSON object (first "{" to last "}") must decode and carry at
// least integration and operation. Params default to empty.
func ExtractAction(reply string) (core.Action, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return core.Action{}, fmt.Errorf("reply contains no JSON object")
	}

	var decoded struct {
		Integration string         `json:"integration"`
		Operation   string         `json:"operation"`
		Params      map[string]any `json:"params"`
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), &decoded); err != nil {
		return core.Action{}, fmt.Errorf("reply JSON does not decode: %w", err)
	}
	if strings.TrimSpace(decoded.Integration) == "" || strings.TrimSpace(decoded.Operation) == "" {
		return core.Action{}, fmt.Errorf("reply JSON missing integration or operation")
	}
	return core.NewAction(decoded.Integration, decoded.Operation, decoded.Params), nil
}

// ParseRule parses the deterministic grammar
// "integration.operation key1=value1 key2=value2". The first token splits
// once on "."; later tokens without "=" are ignored; values are strings.
func ParseRule(text string) (core.Action, error) {
	tokens := strings.Fields(strings.TrimSpace(text))
	if len(tokens) == 0 {
		return core.Action{}, fmt.Errorf("instruction text is empty")
	}

	head := tokens[0]
	integration, operation, found := strings.Cut(head, ".")
	if !found || strings.TrimSpace(integration) == "" || strings.TrimSpace(operation) == "" {
		return core.Action{}, fmt.Errorf("expected integration.operation, got %q", head)
	}

	params := map[string]any{}
	for _, token := range tokens[1:] {
		key, value, ok := strings.Cut(token, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}
		params[strings.TrimSpace(key)] = value
	}
	return core.NewAction(integration, operation, params), nil
}

func parseError(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorCodeParse)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
