package transport

import (
	"context"

	"github.com/google/uuid"
)

// Roles. Managers administer users and see every lead; agents see only
// their own slice of the pipeline.
const (
	RoleManager = "manager"
	RoleAgent   = "agent"
)

// Profile represents user information that can be shared with other domains.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
}

// Directory is the interface other domains use to look up users without
// depending on auth internals.
type Directory interface {
	// ListAgentNames returns the display names of all agents, for
	// distributing imported leads.
	ListAgentNames(ctx context.Context) ([]string, error)
	// EmailByAssignee resolves a lead assignee cell (username or display
	// name, typed by hand) to that user's email address.
	EmailByAssignee(ctx context.Context, assignee string) (string, error)
}
