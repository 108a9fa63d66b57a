package domain

// MemberRole is the role a user holds inside one workspace.
type MemberRole string

const (
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

// Member is a user's membership record within one workspace. Its existence is
// the sole authorization signal for the task and analytics paths.
type Member struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	WorkspaceID string     `json:"workspaceId"`
	Role        MemberRole `json:"role"`
}
