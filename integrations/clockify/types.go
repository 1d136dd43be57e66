package clockify

// Minimal subset of the Clockify API surface used by the integration. Field
// names mirror the upstream JSON casing.

type User struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	ActiveWorkspace string `json:"activeWorkspace,omitempty"`
	Status          string `json:"status,omitempty"`
}

type Workspace struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	HourlyRate  map[string]any   `json:"hourlyRate,omitempty"`
	Memberships []map[string]any `json:"memberships,omitempty"`
}

type Client struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspaceId"`
	Archived    bool   `json:"archived"`
}

type ClientCreate struct {
	Name     string `json:"name"`
	Archived bool   `json:"archived"`
}

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspaceId"`
	ClientID    string `json:"clientId,omitempty"`
	ClientName  string `json:"clientName,omitempty"`
	Color       string `json:"color,omitempty"`
	Archived    bool   `json:"archived"`
	Billable    bool   `json:"billable"`
}

type ProjectCreate struct {
	Name     string `json:"name"`
	ClientID string `json:"clientId,omitempty"`
	Color    string `json:"color,omitempty"`
	Billable bool   `json:"billable"`
	IsPublic bool   `json:"isPublic"`
	Archived bool   `json:"archived"`
}

type TimeInterval struct {
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type TimeEntry struct {
	ID           string       `json:"id"`
	Description  string       `json:"description,omitempty"`
	UserID       string       `json:"userId"`
	WorkspaceID  string       `json:"workspaceId"`
	ProjectID    string       `json:"projectId,omitempty"`
	TaskID       string       `json:"taskId,omitempty"`
	TimeInterval TimeInterval `json:"timeInterval"`
	Billable     bool         `json:"billable"`
	IsLocked     bool         `json:"isLocked"`
}

type TimeEntryCreate struct {
	Start       string   `json:"start"`
	End         string   `json:"end,omitempty"`
	Billable    *bool    `json:"billable,omitempty"`
	Description string   `json:"description,omitempty"`
	ProjectID   string   `json:"projectId,omitempty"`
	TaskID      string   `json:"taskId,omitempty"`
	TagIDs      []string `json:"tagIds,omitempty"`
}
