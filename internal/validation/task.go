// Package validation holds the pure business-rule checks applied to task
// mutations and list queries before anything touches the store.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/projecthub/project-management-api/internal/constants"
	"github.com/projecthub/project-management-api/internal/models"
)

// Rejection messages are part of the API contract; the frontend renders them.
var (
	ErrProjectNotActive     = errors.New("Tasks can only be assigned to active projects.")
	ErrProjectArchived      = errors.New("Project is archived and read-only.")
	ErrProjectReassignment  = errors.New("Project assignment cannot be changed after creation.")
	ErrInvalidPriority      = errors.New("Priority must be an integer between 1 and 10")
	ErrInvalidTaskStatus    = errors.New("Invalid task status")
	ErrTitleRequired        = errors.New("Title is required")
	ErrNoAssignees          = errors.New("A task must have at least one assignee.")
	ErrTooManyAssignees     = fmt.Errorf("You can assign up to %d members.", constants.MaxTaskAssignees)
)

// legacy string priorities accepted at the boundary, stored as integers
var legacyPriorities = map[string]int{
	"low":    1,
	"medium": 5,
	"high":   10,
}

// NormalizePriority coerces a wire-level priority (int, float, legacy string,
// or numeric string) to an integer in [1,10]. Idempotent for valid input.
func NormalizePriority(raw any) (int, error) {
	var p int
	switch v := raw.(type) {
	case int:
		p = v
	case int64:
		p = int(v)
	case float64:
		// JSON numbers decode as float64; reject fractional values
		if v != float64(int(v)) {
			return 0, ErrInvalidPriority
		}
		p = int(v)
	case string:
		if mapped, ok := legacyPriorities[v]; ok {
			return mapped, nil
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, ErrInvalidPriority
		}
		p = parsed
	default:
		return 0, ErrInvalidPriority
	}

	if p < constants.MinTaskPriority || p > constants.MaxTaskPriority {
		return 0, ErrInvalidPriority
	}
	return p, nil
}

// CheckAssigneeCount enforces the [1,5] assignee bound on the resulting set.
func CheckAssigneeCount(count int) error {
	if count < constants.MinTaskAssignees {
		return ErrNoAssignees
	}
	if count > constants.MaxTaskAssignees {
		return ErrTooManyAssignees
	}
	return nil
}

// TaskDraft is a task create request after JSON decoding, before normalization.
type TaskDraft struct {
	Title       string
	Description string
	Priority    any // int, float64, or string at the boundary
	Status      models.TaskStatus
	Deadline    *time.Time
	Tags        string
	ParentID    *uint64
	AssigneeIDs []uint64
}

// NormalizedDraft is a TaskDraft with priority resolved and defaults applied.
type NormalizedDraft struct {
	Title       string
	Description string
	Priority    int
	Status      models.TaskStatus
	Deadline    *time.Time
	Tags        string
	ParentID    *uint64
	AssigneeIDs []uint64
}

// ValidateCreate checks a task draft against the target project. It returns
// the normalized draft on success.
func ValidateCreate(draft TaskDraft, project *models.Project) (*NormalizedDraft, error) {
	if project.Status != models.ProjectStatusActive {
		return nil, ErrProjectNotActive
	}
	if draft.Title == "" {
		return nil, ErrTitleRequired
	}

	status := draft.Status
	if status == "" {
		status = models.TaskStatusPending
	}
	if !models.IsValidTaskStatus(status) {
		return nil, ErrInvalidTaskStatus
	}

	priority := constants.DefaultPriority
	if draft.Priority != nil {
		p, err := NormalizePriority(draft.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	if err := CheckAssigneeCount(len(draft.AssigneeIDs)); err != nil {
		return nil, err
	}

	return &NormalizedDraft{
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    priority,
		Status:      status,
		Deadline:    draft.Deadline,
		Tags:        draft.Tags,
		ParentID:    draft.ParentID,
		AssigneeIDs: draft.AssigneeIDs,
	}, nil
}

// TaskPatch is a partial task update. Nil fields were not sent.
type TaskPatch struct {
	Title         *string
	Description   *string
	Priority      any // nil when absent
	Status        *models.TaskStatus
	Deadline      *time.Time
	ClearDeadline bool
	Tags          *string
	ProjectID     *uint64 // present only to detect reassignment attempts
	AssigneeIDs   []uint64
	Archived      *bool
}

// ValidateUpdate checks a patch against the existing task and its project,
// mutating nothing. It returns the normalized priority when one was sent
// (zero otherwise).
func ValidateUpdate(existing *models.Task, patch TaskPatch, project *models.Project) (int, error) {
	if project.Status == models.ProjectStatusArchived {
		return 0, ErrProjectArchived
	}
	if patch.ProjectID != nil && *patch.ProjectID != existing.ProjectID {
		return 0, ErrProjectReassignment
	}
	if patch.Title != nil && *patch.Title == "" {
		return 0, ErrTitleRequired
	}
	if patch.Status != nil && !models.IsValidTaskStatus(*patch.Status) {
		return 0, ErrInvalidTaskStatus
	}
	if patch.AssigneeIDs != nil {
		if err := CheckAssigneeCount(len(patch.AssigneeIDs)); err != nil {
			return 0, err
		}
	}

	if patch.Priority != nil {
		return NormalizePriority(patch.Priority)
	}
	return 0, nil
}
