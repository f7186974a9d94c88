package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/projecthub/project-management-api/internal/models"
	"github.com/projecthub/project-management-api/internal/rbac"
	"github.com/projecthub/project-management-api/internal/repository"
	"github.com/projecthub/project-management-api/internal/timesheet"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound        = errors.New("project not found")
	ErrProjectNameRequired    = errors.New("project name is required")
	ErrProjectDescRequired    = errors.New("project description is required")
	ErrProjectArchivedRO      = errors.New("Project is archived and read-only.")
	ErrInvalidProjectStatus   = errors.New("invalid project status")
	ErrInvalidMemberRole      = errors.New("role must be 'manager' or 'collaborator'")
	ErrCreatorRoleReserved    = errors.New("the creator role is assigned at project creation and cannot be granted")
	ErrProjectMemberNotFound  = errors.New("project member not found")
	ErrCannotRemoveCreator    = errors.New("the project creator cannot be removed")
	ErrMemberHasSoleTasks     = errors.New("user is the only assignee on one or more tasks and cannot be removed")
	ErrMemberUserNotFound     = errors.New("one or more users do not exist")
	ErrHoursReportRestricted  = errors.New("only project members can view this report")
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, taskRepo repository.TaskRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		userRepo:    userRepo,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	Creator     rbac.Identity
}

// CreateProject creates a project in the active state and records the creator
// membership in the same transaction.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	decision := rbac.Evaluate(rbac.ActionCreateProject, input.Creator, nil, nil)
	if !decision.Allowed {
		return nil, &PermissionDeniedError{Reason: decision.Reason}
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrProjectNameRequired
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, ErrProjectDescRequired
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		Status:      models.ProjectStatusActive,
		CreatorID:   input.Creator.UserID,
	}

	member := &models.ProjectMember{
		UserID:   input.Creator.UserID,
		Role:     models.ProjectRoleCreator,
		JoinedAt: time.Now(),
	}

	if err := s.projectRepo.Create(project, member); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjectsForUser returns the memberships of projects the user belongs to.
func (s *ProjectService) ListProjectsForUser(userID uint64) ([]models.ProjectMember, error) {
	memberships, err := s.projectRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return memberships, nil
}

// GetProjectWithMembers returns a project and all of its members.
func (s *ProjectService) GetProjectWithMembers(projectID uint64) (*models.Project, []models.ProjectMember, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to find project: %w", err)
	}

	members, err := s.projectRepo.ListMembers(projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list project members: %w", err)
	}

	return project, members, nil
}

// UpdateProjectInput is a partial project update. Nil fields were not sent.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
}

// UpdateProject edits project fields. Archived projects are read-only, and
// archival itself goes through ArchiveProject so the task cascade runs.
func (s *ProjectService) UpdateProject(projectID uint64, input UpdateProjectInput, caller rbac.Identity) (*models.Project, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	if _, err := requirePermission(s.projectRepo, rbac.ActionEditProject, caller, projectID, nil); err != nil {
		return nil, err
	}

	if project.Status == models.ProjectStatusArchived {
		return nil, ErrProjectArchivedRO
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrProjectNameRequired
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		if !models.IsValidProjectStatus(*input.Status) || *input.Status == models.ProjectStatusArchived {
			return nil, ErrInvalidProjectStatus
		}
		project.Status = *input.Status
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// ArchiveProject sets the project to archived and archives all of its tasks
// atomically.
func (s *ProjectService) ArchiveProject(projectID uint64, caller rbac.Identity) (*models.Project, error) {
	project, err := s.findProject(projectID)
	if err != nil {
		return nil, err
	}

	if _, err := requirePermission(s.projectRepo, rbac.ActionArchiveProject, caller, projectID, nil); err != nil {
		return nil, err
	}

	if project.Status == models.ProjectStatusArchived {
		return nil, ErrProjectArchivedRO
	}

	if err := s.projectRepo.ArchiveWithTasks(projectID); err != nil {
		return nil, fmt.Errorf("failed to archive project: %w", err)
	}

	project.Status = models.ProjectStatusArchived
	return project, nil
}

// AddUsersInput represents parameters to add members to a project.
type AddUsersInput struct {
	ProjectID uint64
	UserIDs   []uint64
	Role      models.ProjectRole
	Inviter   rbac.Identity
}

// AddUsersToProject adds users as members with the given role. The creator
// role is set once at project creation and is rejected here outright rather
// than silently downgraded. Existing members are skipped.
func (s *ProjectService) AddUsersToProject(input AddUsersInput) ([]models.ProjectMember, error) {
	project, err := s.findProject(input.ProjectID)
	if err != nil {
		return nil, err
	}

	if _, err := requirePermission(s.projectRepo, rbac.ActionAddProjectMembers, input.Inviter, input.ProjectID, nil); err != nil {
		return nil, err
	}

	if project.Status == models.ProjectStatusArchived {
		return nil, ErrProjectArchivedRO
	}

	if input.Role == models.ProjectRoleCreator {
		return nil, ErrCreatorRoleReserved
	}
	if !models.IsValidProjectRole(input.Role) {
		return nil, ErrInvalidMemberRole
	}

	for _, userID := range uniqueUint64(input.UserIDs) {
		if _, err := s.userRepo.FindByID(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrMemberUserNotFound
			}
			return nil, fmt.Errorf("failed to verify user: %w", err)
		}

		// Skip users who are already members
		if _, err := s.projectRepo.FindMember(input.ProjectID, userID); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to verify membership: %w", err)
		}

		member := &models.ProjectMember{
			ProjectID: input.ProjectID,
			UserID:    userID,
			Role:      input.Role,
			JoinedAt:  time.Now(),
		}
		if err := s.projectRepo.AddMember(member); err != nil {
			return nil, fmt.Errorf("failed to add member: %w", err)
		}
	}

	return s.projectRepo.ListMembers(input.ProjectID)
}

// RemoveUserFromProject removes a member. The creator is never removable,
// regardless of the caller's global role, and removal is refused while the
// user is the sole assignee of any task in the project.
func (s *ProjectService) RemoveUserFromProject(projectID, targetID uint64, caller rbac.Identity) error {
	project, err := s.findProject(projectID)
	if err != nil {
		return err
	}

	if _, err := requirePermission(s.projectRepo, rbac.ActionRemoveProjectMember, caller, projectID, nil); err != nil {
		return err
	}

	if project.Status == models.ProjectStatusArchived {
		return ErrProjectArchivedRO
	}

	target, err := s.projectRepo.FindMember(projectID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectMemberNotFound
		}
		return fmt.Errorf("failed to find project member: %w", err)
	}

	// This check runs after any admin short-circuit in the evaluator and is
	// applied unconditionally: the creator row anchors the one-creator
	// invariant.
	if target.Role == models.ProjectRoleCreator {
		return ErrCannotRemoveCreator
	}

	soleCount, err := s.taskRepo.CountTasksWhereSoleAssignee(projectID, targetID)
	if err != nil {
		return fmt.Errorf("failed to check task assignments: %w", err)
	}
	if soleCount > 0 {
		return ErrMemberHasSoleTasks
	}

	if err := s.projectRepo.RemoveMember(projectID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// ProjectHours rolls up logged hours across the project's tasks. Members see
// their own projects; HR and admin may read any project's report.
func (s *ProjectService) ProjectHours(projectID uint64, caller rbac.Identity) (*timesheet.ProjectSummary, error) {
	if _, err := s.findProject(projectID); err != nil {
		return nil, err
	}

	if caller.GlobalRole != models.GlobalRoleAdmin && caller.GlobalRole != models.GlobalRoleHR {
		if _, err := s.projectRepo.FindMember(projectID, caller.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrHoursReportRestricted
			}
			return nil, fmt.Errorf("failed to resolve project membership: %w", err)
		}
	}

	rows, err := s.taskRepo.ListTimeEntriesByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load time entries: %w", err)
	}

	entries := make([]timesheet.ProjectEntry, len(rows))
	for i, row := range rows {
		entries[i] = timesheet.ProjectEntry{TaskID: row.TaskID, UserID: row.UserID, Hours: row.Hours}
	}

	summary := timesheet.SummarizeByTask(entries)
	return &summary, nil
}

func (s *ProjectService) findProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}
