package services

import (
	"errors"
	"fmt"

	"github.com/projecthub/project-management-api/internal/models"
	"github.com/projecthub/project-management-api/internal/rbac"
	"github.com/projecthub/project-management-api/internal/repository"
	"github.com/projecthub/project-management-api/internal/timesheet"
	"github.com/projecthub/project-management-api/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrNotProjectMember    = errors.New("user is not a member of the project")
	ErrTaskNotFound        = errors.New("task not found")
	ErrInvalidTaskAssignee = errors.New("one or more users do not exist or are not members of the project")
	ErrTaskConflict        = errors.New("task was modified by someone else; reload and retry")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	Caller       rbac.Identity
	ProjectID    *uint64
	AssignedToMe bool
	Status       *models.TaskStatus
	Priority     *int
	Query        validation.ListQuery
}

// ListTasks returns tasks visible to the caller. Visibility is filtered by
// membership rather than denied outright; a caller with no projects gets an
// empty page.
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	projectIDs, err := s.resolveAccessibleProjectIDs(input.Caller, input.ProjectID)
	if err != nil {
		return nil, 0, err
	}

	if len(projectIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	filter := repository.TaskFilter{
		ProjectIDs: projectIDs,
		Status:     input.Status,
		Priority:   input.Priority,
		Query:      input.Query,
	}
	if input.AssignedToMe {
		filter.AssignedUserID = &input.Caller.UserID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Project", "Assignments", "Assignments.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID uint64
	Draft     validation.TaskDraft
	Creator   rbac.Identity
}

// CreateTask gates on permission, validates the draft against the project,
// and persists the task with its assignee set.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	project, err := s.projectRepo.FindByID(input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if _, err := requirePermission(s.projectRepo, rbac.ActionCreateTask, input.Creator, input.ProjectID, nil); err != nil {
		return nil, err
	}

	// Duplicates collapse before the assignee bound is checked.
	input.Draft.AssigneeIDs = uniqueUint64(input.Draft.AssigneeIDs)

	draft, err := validation.ValidateCreate(input.Draft, project)
	if err != nil {
		return nil, err
	}

	if err := s.verifyProjectMembers(draft.AssigneeIDs, input.ProjectID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:        draft.Title,
		Description:  draft.Description,
		Status:       draft.Status,
		Priority:     draft.Priority,
		Deadline:     draft.Deadline,
		Tags:         draft.Tags,
		ParentTaskID: draft.ParentID,
		ProjectID:    input.ProjectID,
		CreatorID:    input.Creator.UserID,
	}

	if err := s.taskRepo.Create(task, draft.AssigneeIDs); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Project", "Assignments", "Assignments.User")
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	TaskID uint64
	Patch  validation.TaskPatch
	Hours  *float64 // logged against the caller, never written to the task row
	Caller rbac.Identity
}

// UpdateTask gates on permission, validates the patch, and persists with an
// updated_at compare-and-swap so concurrent edits surface as conflicts.
// A provided hours value is appended to the caller's time entries.
func (s *TaskService) UpdateTask(input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(input.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, err := s.projectRepo.FindByID(task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	assigneeIDs, err := s.taskRepo.ListAssigneeIDs(task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignees: %w", err)
	}

	taskCtx := &rbac.TaskContext{AssigneeIDs: assigneeIDs}
	if _, err := requirePermission(s.projectRepo, rbac.ActionModifyTask, input.Caller, task.ProjectID, taskCtx); err != nil {
		return nil, err
	}

	patch := input.Patch
	if patch.AssigneeIDs != nil {
		patch.AssigneeIDs = uniqueUint64(patch.AssigneeIDs)
	}

	priority, err := validation.ValidateUpdate(task, patch, project)
	if err != nil {
		return nil, err
	}

	// Every check runs before anything is written; a rejected patch must
	// leave the stored task untouched.
	if patch.AssigneeIDs != nil {
		if err := s.verifyProjectMembers(patch.AssigneeIDs, task.ProjectID); err != nil {
			return nil, err
		}
	}

	loadedAt := task.UpdatedAt
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = priority
	}
	if patch.ClearDeadline {
		task.Deadline = nil
	} else if patch.Deadline != nil {
		task.Deadline = patch.Deadline
	}
	if patch.Tags != nil {
		task.Tags = *patch.Tags
	}
	if patch.Archived != nil {
		task.Archived = *patch.Archived
	}

	if err := s.taskRepo.UpdateGuarded(task, loadedAt, patch.AssigneeIDs); err != nil {
		if errors.Is(err, repository.ErrStaleUpdate) {
			return nil, ErrTaskConflict
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if input.Hours != nil {
		entry := &models.TimeEntry{
			TaskID: task.ID,
			UserID: input.Caller.UserID,
			Hours:  *input.Hours,
		}
		if err := s.taskRepo.AddTimeEntry(entry); err != nil {
			return nil, fmt.Errorf("failed to record hours: %w", err)
		}
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Project", "Assignments", "Assignments.User")
}

// TaskHours summarizes logged hours for a task across its assignees.
func (s *TaskService) TaskHours(taskID uint64) (*timesheet.Summary, error) {
	if _, err := s.taskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	rows, err := s.taskRepo.ListTimeEntriesByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load time entries: %w", err)
	}

	summary := timesheet.Summarize(timesheet.FromTimeEntries(rows))
	return &summary, nil
}

// resolveAccessibleProjectIDs returns the project IDs the caller may see.
// Admin and HR read across all memberships they hold plus any explicitly
// requested project; everyone else is limited to their memberships.
func (s *TaskService) resolveAccessibleProjectIDs(caller rbac.Identity, projectID *uint64) ([]uint64, error) {
	if projectID != nil {
		if caller.GlobalRole == models.GlobalRoleAdmin || caller.GlobalRole == models.GlobalRoleHR {
			return []uint64{*projectID}, nil
		}
		if _, err := s.projectRepo.FindMember(*projectID, caller.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotProjectMember
			}
			return nil, fmt.Errorf("failed to verify project membership: %w", err)
		}
		return []uint64{*projectID}, nil
	}

	memberships, err := s.projectRepo.ListMembersByUserID(caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project memberships: %w", err)
	}

	projectIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		projectIDs = append(projectIDs, m.ProjectID)
	}

	return projectIDs, nil
}

// verifyProjectMembers ensures every user ID is a member of the project.
func (s *TaskService) verifyProjectMembers(userIDs []uint64, projectID uint64) error {
	if len(userIDs) == 0 {
		return nil
	}

	count, err := s.taskRepo.CountMembersByIDs(userIDs, projectID)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(userIDs) {
		return ErrInvalidTaskAssignee
	}
	return nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
