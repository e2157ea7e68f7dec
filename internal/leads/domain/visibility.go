package domain

import "strings"

// SharedAssignee marks a lead every agent can see and work.
const SharedAssignee = "ALL"

// Viewer is the identity a lead list is filtered for.
type Viewer struct {
	Username    string
	DisplayName string
	Manager     bool
}

// VisibleTo reports whether the viewer may see this lead. Managers see
// everything. Agents see leads assigned to their username or display name,
// plus shared leads. Comparison is case-insensitive because assignee cells
// are typed by hand.
func (l Lead) VisibleTo(viewer Viewer) bool {
	if viewer.Manager {
		return true
	}

	assignee := strings.TrimSpace(l.AssignedTo)
	if strings.EqualFold(assignee, SharedAssignee) {
		return true
	}
	if viewer.Username != "" && strings.EqualFold(assignee, viewer.Username) {
		return true
	}
	if viewer.DisplayName != "" && strings.EqualFold(assignee, viewer.DisplayName) {
		return true
	}
	return false
}
