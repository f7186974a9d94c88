package rbac

import "github.com/projecthub/project-management-api/internal/models"

// projectRoleWeight orders project roles for comparison.
// Higher weight = more permissions.
var projectRoleWeight = map[models.ProjectRole]int{
	models.ProjectRoleCollaborator: 1,
	models.ProjectRoleManager:      2,
	models.ProjectRoleCreator:      3,
}

// ProjectRoleAtLeast returns true if role has at least the given minimum role level.
func ProjectRoleAtLeast(role, minRole models.ProjectRole) bool {
	return projectRoleWeight[role] >= projectRoleWeight[minRole]
}

// globalRoleWeight orders the mutation-capable global roles. HR is
// deliberately absent: it is read-mostly and never compared by seniority.
var globalRoleWeight = map[models.GlobalRole]int{
	models.GlobalRoleStaff:   1,
	models.GlobalRoleManager: 2,
	models.GlobalRoleAdmin:   3,
}

// GlobalRoleAtLeast returns true if role has at least the given minimum role level.
func GlobalRoleAtLeast(role, minRole models.GlobalRole) bool {
	return globalRoleWeight[role] >= globalRoleWeight[minRole]
}

// Identity describes the caller as seen by permission checks. Hierarchy and
// Division support department-scoped report filtering and are inert here.
type Identity struct {
	UserID     uint64
	GlobalRole models.GlobalRole
	Hierarchy  int
	Division   string
}

// IdentityFromUser builds the evaluator input from a loaded user row.
func IdentityFromUser(user *models.User) Identity {
	return Identity{
		UserID:     user.ID,
		GlobalRole: user.GlobalRole,
		Hierarchy:  user.Hierarchy,
		Division:   user.Division,
	}
}
