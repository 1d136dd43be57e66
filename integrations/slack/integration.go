package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-autohub/core"
	"github.com/goliatone/go-autohub/transport"
)

// IntegrationID is the name actions use to address this adapter.
const IntegrationID = "slack"

// DefaultAPIURL is the Slack Web API host.
const DefaultAPIURL = "https://slack.com/api"

const requestTimeout = 30 * time.Second

// Integration posts messages through the Slack Web API and answers the
// url_verification handshake on inbound webhooks.
type Integration struct {
	APIURL   string
	BotToken string
	Adapter  core.TransportAdapter
	Runner   *transport.Runner
}

func NewIntegration(botToken string, adapter core.TransportAdapter, runner *transport.Runner) *Integration {
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	if runner == nil {
		runner = transport.NewRunner(IntegrationID, nil)
	}
	return &Integration{
		APIURL:   DefaultAPIURL,
		BotToken: strings.TrimSpace(botToken),
		Adapter:  adapter,
		Runner:   runner,
	}
}

func (*Integration) ID() string {
	return IntegrationID
}

func (*Integration) Operations() []string {
	return []string{"post_message"}
}

func (i *Integration) Execute(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	switch strings.TrimSpace(operation) {
	case "post_message":
		return i.postMessage(ctx, params)
	}
	return nil, goerrors.New(fmt.Sprintf("Unknown operation: %s", operation), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(core.ErrorCodeNotFound).
		WithMetadata(map[string]any{"integration": IntegrationID, "operation": operation})
}

func (i *Integration) postMessage(ctx context.Context, params map[string]any) (map[string]any, error) {
	if i.BotToken == "" {
		return nil, goerrors.New("Slack bot token not configured", goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(core.ErrorCodeUnauthorized)
	}
	channel, _ := params["channel"].(string)
	text, _ := params["text"].(string)
	if strings.TrimSpace(channel) == "" || strings.TrimSpace(text) == "" {
		return nil, goerrors.New("channel and text required", goerrors.CategoryValidation).
			WithCode(http.StatusBadRequest).
			WithTextCode(core.ErrorCodeValidation)
	}

	body, err := json.Marshal(map[string]string{"channel": channel, "text": text})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "slack: encode message").
			WithTextCode(core.ErrorCodeInternal)
	}

	res, err := i.Runner.Run(ctx, func(ctx context.Context) (core.TransportResponse, error) {
		return i.Adapter.Do(ctx, core.TransportRequest{
			Method: http.MethodPost,
			URL:    strings.TrimRight(i.APIURL, "/") + "/chat.postMessage",
			Headers: map[string]string{
				"Authorization": "Bearer " + i.BotToken,
				"Content-Type":  "application/json",
			},
			Body:    body,
			Timeout: requestTimeout,
		})
	})
	if err != nil {
		return nil, err
	}

	result := map[string]any{}
	if err := json.Unmarshal(res.Body, &result); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "slack: decode api response").
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorCodeUpstream).
			WithMetadata(map[string]any{"status_code": res.StatusCode})
	}
	// The Web API reports logical failures with 200 + {"ok": false}.
	if ok, _ := result["ok"].(bool); !ok {
		reason, _ := result["error"].(string)
		if reason == "" {
			reason = "unknown error"
		}
		return nil, goerrors.New(fmt.Sprintf("slack api error: %s", reason), goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorCodeUpstream).
			WithMetadata(map[string]any{"slack_error": reason})
	}
	return result, nil
}

// HandleWebhook answers Slack's url_verification challenge and acknowledges
// everything else.
func (*Integration) HandleWebhook(_ context.Context, payload map[string]any) (map[string]any, error) {
	if payload["type"] == "url_verification" {
		if challenge, ok := payload["challenge"]; ok {
			return map[string]any{"challenge": challenge}, nil
		}
	}
	return map[string]any{"ok": true, "received": true}, nil
}

var _ core.Integration = (*Integration)(nil)
