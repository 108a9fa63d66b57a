package domain

// Project groups tasks inside a workspace.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ImageURL    string `json:"imageUrl,omitempty"`
	WorkspaceID string `json:"workspaceId"`
}

// Workspace is the top-level tenant owning members, projects and tasks.
// It is managed by external collaborators; the core only reads it through
// membership checks and foreign keys.
type Workspace struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	UserID   string `json:"userId"`
	ImageURL string `json:"imageUrl,omitempty"`
}
