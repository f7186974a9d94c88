// Package rbac resolves a caller's effective permission for project-scoped
// actions across two independent axes: the organization-wide global role and
// the per-project membership role. Evaluation is pure; callers supply the
// resolved membership row.
package rbac

import "github.com/projecthub/project-management-api/internal/models"

// Action is an operation gated by the evaluator.
type Action string

const (
	ActionCreateProject       Action = "create_project"
	ActionEditProject         Action = "edit_project"
	ActionArchiveProject      Action = "archive_project"
	ActionAddProjectMembers   Action = "add_project_members"
	ActionRemoveProjectMember Action = "remove_project_member"
	ActionCreateTask          Action = "create_task"
	ActionModifyTask          Action = "modify_task"
)

// Deny reasons surfaced verbatim in 403 responses.
const (
	ReasonInsufficientRole       = "insufficient role"
	ReasonNotProjectMember       = "not a project member"
	ReasonInsufficientPermission = "insufficient permission"
)

// Decision is the outcome of a permission check. Reason is set on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// TaskContext carries the task-specific facts ActionModifyTask needs.
type TaskContext struct {
	AssigneeIDs []uint64
}

// Evaluate resolves whether the caller may perform action. membership is the
// caller's row in the target project, nil when they are not a member; it is
// ignored for ActionCreateProject. taskCtx is consulted only for
// ActionModifyTask and may be nil otherwise.
//
// Rules apply in precedence order; the first match wins.
func Evaluate(action Action, identity Identity, membership *models.ProjectMember, taskCtx *TaskContext) Decision {
	// Rule 1: admin passes everything.
	if identity.GlobalRole == models.GlobalRoleAdmin {
		return allow()
	}

	// Rule 2: project creation is gated on global role alone.
	if action == ActionCreateProject {
		if identity.GlobalRole == models.GlobalRoleManager {
			return allow()
		}
		return deny(ReasonInsufficientRole)
	}

	// Rule 3: every remaining action is project-scoped and needs membership.
	// Read-only listings are filtered upstream rather than denied here.
	if membership == nil {
		return deny(ReasonNotProjectMember)
	}

	switch action {
	case ActionEditProject, ActionAddProjectMembers, ActionRemoveProjectMember:
		// Rules 4 and 5: creator and project manager both qualify.
		if ProjectRoleAtLeast(membership.Role, models.ProjectRoleManager) {
			return allow()
		}

	case ActionArchiveProject:
		// Rule 4 only: archive is reserved for the creator (or admin, above).
		if membership.Role == models.ProjectRoleCreator {
			return allow()
		}

	case ActionCreateTask:
		// Rule 6: any member may create tasks.
		return allow()

	case ActionModifyTask:
		// Rule 6: project manager/creator, or an assignee of the task.
		if ProjectRoleAtLeast(membership.Role, models.ProjectRoleManager) {
			return allow()
		}
		if taskCtx != nil {
			for _, id := range taskCtx.AssigneeIDs {
				if id == identity.UserID {
					return allow()
				}
			}
		}
	}

	// Rule 7: default deny.
	return deny(ReasonInsufficientPermission)
}
