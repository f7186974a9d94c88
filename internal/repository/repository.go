package repository

import (
	"time"

	"github.com/projecthub/project-management-api/internal/models"
	"github.com/projecthub/project-management-api/internal/validation"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a task and its assignee rows atomically
	Create(task *models.Task, assigneeIDs []uint64) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// UpdateGuarded updates a task only if its updated_at still matches
	// loadedAt, returning ErrStaleUpdate on a lost race. A non-nil
	// assigneeIDs replaces the assignee set in the same transaction.
	UpdateGuarded(task *models.Task, loadedAt time.Time, assigneeIDs []uint64) error

	// ListAssigneeIDs returns the current assignee IDs of a task
	ListAssigneeIDs(taskID uint64) ([]uint64, error)

	// CountMembersByIDs counts how many of the given user IDs are members of the project
	CountMembersByIDs(userIDs []uint64, projectID uint64) (int64, error)

	// CountTasksWhereSoleAssignee counts non-archived project tasks where the
	// user is the only assignee
	CountTasksWhereSoleAssignee(projectID, userID uint64) (int64, error)

	// AddTimeEntry appends a logged-hours row
	AddTimeEntry(entry *models.TimeEntry) error

	// ListTimeEntriesByTask returns all time entries for a task
	ListTimeEntriesByTask(taskID uint64) ([]models.TimeEntry, error)

	// ListTimeEntriesByProject returns all time entries across a project's tasks
	ListTimeEntriesByProject(projectID uint64) ([]models.TimeEntry, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectIDs      []uint64
	Status          *models.TaskStatus
	Priority        *int
	CreatorID       *uint64
	AssignedUserID  *uint64
	DeadlineFrom    *time.Time
	DeadlineTo      *time.Time
	IncludeArchived bool
	Query           validation.ListQuery
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a project and its creator membership atomically
	Create(project *models.Project, creatorMember *models.ProjectMember) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// List retrieves projects by ID set with pagination
	List(projectIDs []uint64, query validation.ListQuery) ([]models.Project, int64, error)

	// Update updates a project
	Update(project *models.Project) error

	// ArchiveWithTasks marks the project archived and archives every
	// non-archived task under it in a single transaction
	ArchiveWithTasks(projectID uint64) error

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// RemoveMember removes a member from a project
	RemoveMember(projectID, userID uint64) error

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembersByUserID lists all projects a user is a member of
	ListMembersByUserID(userID uint64) ([]models.ProjectMember, error)

	// ListMembers lists all members of a project
	ListMembers(projectID uint64) ([]models.ProjectMember, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID
	FindByID(id uint64) (*models.Comment, error)

	// Update updates a comment
	Update(comment *models.Comment) error

	// ListByTask lists a task's comments oldest-first
	ListByTask(taskID uint64) ([]models.Comment, error)
}
