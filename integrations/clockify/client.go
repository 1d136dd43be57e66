package clockify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-autohub/core"
	"github.com/goliatone/go-autohub/transport"
)

// DefaultBaseURL is the public Clockify API host; versioned paths are
// appended per request.
const DefaultBaseURL = "https://api.clockify.me/api"

const requestTimeout = 20 * time.Second

// APIClient is a typed Clockify client. Calls run through the shared retry
// runner, so throttling and server errors back off before surfacing.
type APIClient struct {
	BaseURL    string
	APIKey     string
	AddonToken string
	Adapter    core.TransportAdapter
	Runner     *transport.Runner
}

// NewAPIClient builds a client from credentials. Either an API key or an
// addon token must be present before any call succeeds; construction itself
// never fails so an unconfigured integration can still register and report
// a classified error at call time.
func NewAPIClient(baseURL, apiKey, addonToken string, adapter core.TransportAdapter, runner *transport.Runner) *APIClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	if runner == nil {
		runner = transport.NewRunner("clockify", nil)
	}
	return &APIClient{
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:     strings.TrimSpace(apiKey),
		AddonToken: strings.TrimSpace(addonToken),
		Adapter:    adapter,
		Runner:     runner,
	}
}

// Configured reports whether any credential is present.
func (c *APIClient) Configured() bool {
	return c != nil && (c.APIKey != "" || c.AddonToken != "")
}

func (c *APIClient) authHeaders() map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	if c.APIKey != "" {
		headers["X-Api-Key"] = c.APIKey
	} else if c.AddonToken != "" {
		headers["X-Addon-Token"] = c.AddonToken
	}
	return headers
}

// request performs one API call with retries and decodes the response into
// out when out is non-nil. A 204 leaves out untouched.
func (c *APIClient) request(ctx context.Context, method, path string, body any, out any) error {
	if !c.Configured() {
		return goerrors.New("Clockify API key or token not configured", goerrors.CategoryAuth).
			WithCode(http.StatusUnauthorized).
			WithTextCode(core.ErrorCodeUnauthorized)
	}

	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "clockify: encode request body").
				WithTextCode(core.ErrorCodeInternal)
		}
	}

	res, err := c.Runner.Run(ctx, func(ctx context.Context) (core.TransportResponse, error) {
		return c.Adapter.Do(ctx, core.TransportRequest{
			Method:  method,
			URL:     c.BaseURL + path,
			Headers: c.authHeaders(),
			Body:    encoded,
			Timeout: requestTimeout,
		})
	})
	if err != nil {
		return err
	}

	if out == nil || res.StatusCode == http.StatusNoContent || len(res.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "clockify: decode response body").
			WithCode(http.StatusBadGateway).
			WithTextCode(core.ErrorCodeUpstream).
			WithMetadata(map[string]any{"status_code": res.StatusCode})
	}
	return nil
}

func (c *APIClient) GetUser(ctx context.Context) (User, error) {
	var user User
	err := c.request(ctx, http.MethodGet, "/v1/user", nil, &user)
	return user, err
}

func (c *APIClient) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var workspaces []Workspace
	err := c.request(ctx, http.MethodGet, "/v1/workspaces", nil, &workspaces)
	return workspaces, err
}

func (c *APIClient) GetWorkspace(ctx context.Context, workspaceID string) (Workspace, error) {
	var workspace Workspace
	err := c.request(ctx, http.MethodGet, "/v1/workspaces/"+workspaceID, nil, &workspace)
	return workspace, err
}

func (c *APIClient) CreateClient(ctx context.Context, workspaceID string, body ClientCreate) (Client, error) {
	var client Client
	err := c.request(ctx, http.MethodPost, "/v1/workspaces/"+workspaceID+"/clients", body, &client)
	return client, err
}

func (c *APIClient) ListClients(ctx context.Context, workspaceID string) ([]Client, error) {
	var clients []Client
	err := c.request(ctx, http.MethodGet, "/v1/workspaces/"+workspaceID+"/clients", nil, &clients)
	return clients, err
}

func (c *APIClient) CreateProject(ctx context.Context, workspaceID string, body ProjectCreate) (Project, error) {
	var project Project
	err := c.request(ctx, http.MethodPost, "/v1/workspaces/"+workspaceID+"/projects", body, &project)
	return project, err
}

func (c *APIClient) ListProjects(ctx context.Context, workspaceID string) ([]Project, error) {
	var projects []Project
	err := c.request(ctx, http.MethodGet, "/v1/workspaces/"+workspaceID+"/projects", nil, &projects)
	return projects, err
}

func (c *APIClient) CreateTimeEntry(ctx context.Context, workspaceID string, body TimeEntryCreate) (TimeEntry, error) {
	var entry TimeEntry
	err := c.request(ctx, http.MethodPost, "/v1/workspaces/"+workspaceID+"/time-entries", body, &entry)
	return entry, err
}
