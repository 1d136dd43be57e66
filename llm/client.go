package llm

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

const (
	// DefaultBaseURL targets an OpenAI-compatible chat completion endpoint.
	DefaultBaseURL = "https://api.deepseek.com/v1"
	DefaultModel   = "deepseek-chat"

	requestTimeout = 30 * time.Second
)

// Client calls an OpenAI-compatible chat completion API. Completions run
// through the shared retry runner so transient upstream failures back off
// like any other integration call.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	Adapter core.TransportAdapter
	Runner  *transport.Runner
}

// New builds a Client. A nil adapter gets a default HTTP adapter; a nil
// runner gets the standard backoff schedule.
func New(baseURL, apiKey, model string, adapter core.TransportAdapter, runner *transport.Runner) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	if runner == nil {
		runner = transport.NewRunner("llm", nil)
	}
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:  strings.TrimSpace(apiKey),
		Model:   strings.TrimSpace(model),
		Adapter: adapter,
		Runner:  runner,
	}
}

// Configured reports whether a credential is present. Callers use this to
// skip the primary parse strategy instead of burning a request.
func (c *Client) Configured() bool {
	return c != nil && c.APIKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a system+user prompt and returns the raw model reply.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if !c.Configured() {
		return "", goerrors.New("llm: no api key configured", goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(core.ErrorCodeUnauthorized)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "llm: encode request").
			WithTextCode(core.ErrorCodeInternal)
	}

	res, err := c.Runner.Run(ctx, func(ctx context.Context) (core.TransportResponse, error) {
		return c.Adapter.Do(ctx, core.TransportRequest{
			Method: http.MethodPost,
			URL:    c.BaseURL + "/chat/completions",
			Headers: map[string]string{
				"Authorization": "Bearer " + c.APIKey,
				"Content-Type":  "application/json",
			},
			Body:    body,
			Timeout: requestTimeout,
		})
	})
	if err != nil {
		return "", err
	}

	var decoded chatResponse
	if err := json.Unmarshal(res.Body, &decoded); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryExternal, "llm: decode completion response").
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorCodeUpstream)
	}
	if len(decoded.Choices) == 0 {
		return "", goerrors.New("llm: completion response has no choices", goerrors.CategoryExternal).
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorCodeUpstream)
	}
	reply := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("llm: completion reply is empty")
	}
	return reply, nil
}
