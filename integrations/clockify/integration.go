package clockify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-autohub/core"
)

// IntegrationID is the name actions use to address this adapter.
const IntegrationID = "clockify"

var operations = []string{
	"get_user",
	"list_workspaces",
	"get_workspace",
	"create_client",
	"list_clients",
	"list_projects",
	"create_project",
	"create_time_entry",
}

// Integration maps action operations onto the typed API client.
type Integration struct {
	client *APIClient
}

func NewIntegration(client *APIClient) *Integration {
	if client == nil {
		client = NewAPIClient("", "", "", nil, nil)
	}
	return &Integration{client: client}
}

func (*Integration) ID() string {
	return IntegrationID
}

func (*Integration) Operations() []string {
	out := make([]string, len(operations))
	copy(out, operations)
	return out
}

// Execute runs one operation. Parameter validation happens here so callers
// get a validation error before any network traffic.
func (i *Integration) Execute(ctx context.Context, operation string, params map[string]any) (map[string]any, error) {
	switch strings.TrimSpace(operation) {
	case "get_user":
		user, err := i.client.GetUser(ctx)
		if err != nil {
			return nil, err
		}
		return okResult(user)

	case "list_workspaces":
		workspaces, err := i.client.ListWorkspaces(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"ok": true, "workspaces": workspaces}, nil

	case "get_workspace":
		workspaceID, err := requireWorkspaceID(params)
		if err != nil {
			return nil, err
		}
		workspace, err := i.client.GetWorkspace(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		return okResult(workspace)

	case "create_client":
		workspaceID, body, err := requireWorkspaceIDAndBody(params)
		if err != nil {
			return nil, err
		}
		var create ClientCreate
		if err := decodeBody(body, &create); err != nil {
			return nil, err
		}
		client, err := i.client.CreateClient(ctx, workspaceID, create)
		if err != nil {
			return nil, err
		}
		return okResult(client)

	case "list_clients":
		workspaceID, err := requireWorkspaceID(params)
		if err != nil {
			return nil, err
		}
		clients, err := i.client.ListClients(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"ok": true, "clients": clients}, nil

	case "list_projects":
		workspaceID, err := requireWorkspaceID(params)
		if err != nil {
			return nil, err
		}
		projects, err := i.client.ListProjects(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"ok": true, "projects": projects}, nil

	case "create_project":
		workspaceID, body, err := requireWorkspaceIDAndBody(params)
		if err != nil {
			return nil, err
		}
		var create ProjectCreate
		if err := decodeBody(body, &create); err != nil {
			return nil, err
		}
		project, err := i.client.CreateProject(ctx, workspaceID, create)
		if err != nil {
			return nil, err
		}
		return okResult(project)

	case "create_time_entry":
		workspaceID, body, err := requireWorkspaceIDAndBody(params)
		if err != nil {
			return nil, err
		}
		var create TimeEntryCreate
		if err := decodeBody(body, &create); err != nil {
			return nil, err
		}
		entry, err := i.client.CreateTimeEntry(ctx, workspaceID, create)
		if err != nil {
			return nil, err
		}
		return okResult(entry)
	}

	return nil, goerrors.New(fmt.Sprintf("Unknown operation: %s", operation), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(core.ErrorCodeNotFound).
		WithMetadata(map[string]any{"integration": IntegrationID, "operation": operation})
}

// HandleWebhook acknowledges provider callbacks addressed directly at the
// integration. The dedicated webhook pipeline handles classification; this
// echoes receipt for anything else.
func (*Integration) HandleWebhook(_ context.Context, payload map[string]any) (map[string]any, error) {
	return map[string]any{"ok": true, "received": true, "id": payload["id"]}, nil
}

// okResult flattens a typed API payload into the {"ok": true, ...} envelope.
func okResult(payload any) (map[string]any, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "clockify: encode result").
			WithTextCode(core.ErrorCodeInternal)
	}
	result := map[string]any{}
	if err := json.Unmarshal(encoded, &result); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "clockify: flatten result").
			WithTextCode(core.ErrorCodeInternal)
	}
	result["ok"] = true
	return result, nil
}

func requireWorkspaceID(params map[string]any) (string, error) {
	workspaceID, _ := params["workspaceId"].(string)
	if strings.TrimSpace(workspaceID) == "" {
		return "", validationError("workspaceId required")
	}
	return strings.TrimSpace(workspaceID), nil
}

func requireWorkspaceIDAndBody(params map[string]any) (string, map[string]any, error) {
	workspaceID, _ := params["workspaceId"].(string)
	body, bodyOK := params["body"].(map[string]any)
	if strings.TrimSpace(workspaceID) == "" || !bodyOK {
		return "", nil, validationError("workspaceId and body required")
	}
	return strings.TrimSpace(workspaceID), body, nil
}

func decodeBody(body map[string]any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return validationError("body is not a JSON object")
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return validationError(fmt.Sprintf("body does not match operation schema: %v", err))
	}
	return nil
}

func validationError(message string) error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.ErrorCodeValidation)
}

var _ core.Integration = (*Integration)(nil)
