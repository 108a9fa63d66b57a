package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthorized indicates the caller is not a member of the workspace the
// operation targets.
var ErrUnauthorized = errors.New("not a workspace member")

// ErrTaskNotFound indicates a referenced task does not exist.
var ErrTaskNotFound = errors.New("task not found")

// ErrProjectNotFound indicates a referenced project does not exist.
var ErrProjectNotFound = errors.New("project not found")

// ErrMixedWorkspaces indicates a reorder batch references tasks from more
// than one workspace. Such a batch is rejected before any write.
var ErrMixedWorkspaces = errors.New("reorder batch spans multiple workspaces")

// ValidationError reports malformed input against the declared shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
