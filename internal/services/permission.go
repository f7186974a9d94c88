package services

import (
	"errors"
	"fmt"

	"github.com/projecthub/project-management-api/internal/models"
	"github.com/projecthub/project-management-api/internal/rbac"
	"github.com/projecthub/project-management-api/internal/repository"
	"gorm.io/gorm"
)

// PermissionDeniedError carries the evaluator's deny reason to the HTTP
// boundary, where it becomes the 403 body.
type PermissionDeniedError struct {
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Reason)
}

// requirePermission resolves the caller's membership in the project and runs
// the evaluator. A missing membership row is passed as nil, not treated as an
// error; the evaluator decides what that means for the action.
func requirePermission(projectRepo repository.ProjectRepository, action rbac.Action, caller rbac.Identity, projectID uint64, taskCtx *rbac.TaskContext) (*models.ProjectMember, error) {
	membership, err := projectRepo.FindMember(projectID, caller.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to resolve project membership: %w", err)
		}
		membership = nil
	}

	decision := rbac.Evaluate(action, caller, membership, taskCtx)
	if !decision.Allowed {
		return nil, &PermissionDeniedError{Reason: decision.Reason}
	}

	return membership, nil
}
