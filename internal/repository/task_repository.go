package repository

import (
	"errors"
	"time"

	"github.com/projecthub/project-management-api/internal/database"
	"github.com/projecthub/project-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleUpdate is returned when a guarded update loses a concurrent race.
var ErrStaleUpdate = errors.New("task repository: task was modified concurrently")

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create persists a task and its assignee rows in one transaction, so a
// failed assignment never leaves an assignee-less task behind.
func (r *GormTaskRepository) Create(task *models.Task, assigneeIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return replaceAssignees(tx, task.ID, assigneeIDs)
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if len(filter.ProjectIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.Model(&models.Task{}).Where("tasks.project_id IN ?", filter.ProjectIDs)

	if !filter.IncludeArchived {
		query = query.Where("tasks.archived = ?", false)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.CreatorID != nil {
		query = query.Where("tasks.creator_id = ?", *filter.CreatorID)
	}
	if filter.AssignedUserID != nil {
		assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedUserID).
			Where("task_assignments.deleted_at IS NULL")
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}
	if filter.DeadlineFrom != nil {
		query = query.Where("tasks.deadline >= ?", *filter.DeadlineFrom)
	}
	if filter.DeadlineTo != nil {
		query = query.Where("tasks.deadline < ?", *filter.DeadlineTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks." + filter.Query.SortBy + " " + filter.Query.SortOrder)
	listQuery = listQuery.Scopes(database.Paginate(filter.Query))

	if err := listQuery.Preload("Creator").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// UpdateGuarded saves the task only if updated_at still matches the value the
// caller loaded; a zero-row update means a concurrent writer got there first.
// A non-nil assigneeIDs replaces the assignee set in the same transaction, so
// a rejected mutation never leaves partial state behind.
func (r *GormTaskRepository) UpdateGuarded(task *models.Task, loadedAt time.Time, assigneeIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Where("id = ? AND updated_at = ?", task.ID, loadedAt).
			Select("title", "description", "status", "priority", "deadline", "tags", "archived", "updated_at").
			Updates(map[string]interface{}{
				"title":       task.Title,
				"description": task.Description,
				"status":      task.Status,
				"priority":    task.Priority,
				"deadline":    task.Deadline,
				"tags":        task.Tags,
				"archived":    task.Archived,
				"updated_at":  time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleUpdate
		}

		if assigneeIDs == nil {
			return nil
		}
		return replaceAssignees(tx, task.ID, assigneeIDs)
	})
}

// replaceAssignees swaps a task's assignee set inside the caller's transaction.
func replaceAssignees(tx *gorm.DB, taskID uint64, userIDs []uint64) error {
	if err := tx.Where("task_id = ? AND user_id NOT IN ?", taskID, userIDs).
		Delete(&models.TaskAssignment{}).Error; err != nil {
		return err
	}

	assignments := make([]models.TaskAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID: taskID,
			UserID: userID,
		}
	}

	return tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL")}),
		}).
		Create(&assignments).Error
}

// ListAssigneeIDs returns the current assignee IDs of a task
func (r *GormTaskRepository) ListAssigneeIDs(taskID uint64) ([]uint64, error) {
	var userIDs []uint64
	err := r.db.Model(&models.TaskAssignment{}).
		Where("task_id = ?", taskID).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// CountMembersByIDs counts how many of the given user IDs are members of the project
func (r *GormTaskRepository) CountMembersByIDs(userIDs []uint64, projectID uint64) (int64, error) {
	var count int64

	err := r.db.Model(&models.User{}).
		Joins("JOIN project_members ON users.id = project_members.user_id").
		Where("project_members.project_id = ? AND users.id IN ?", projectID, userIDs).
		Count(&count).Error

	return count, err
}

// CountTasksWhereSoleAssignee counts non-archived project tasks where the user
// is the only remaining assignee.
func (r *GormTaskRepository) CountTasksWhereSoleAssignee(projectID, userID uint64) (int64, error) {
	var count int64

	soleSubQuery := r.db.Model(&models.TaskAssignment{}).
		Select("task_id").
		Where("task_assignments.deleted_at IS NULL").
		Group("task_id").
		Having("COUNT(*) = 1")

	err := r.db.Model(&models.Task{}).
		Joins("JOIN task_assignments ON task_assignments.task_id = tasks.id").
		Where("tasks.project_id = ? AND tasks.archived = ?", projectID, false).
		Where("task_assignments.user_id = ?", userID).
		Where("task_assignments.deleted_at IS NULL").
		Where("tasks.id IN (?)", soleSubQuery).
		Count(&count).Error

	return count, err
}

// AddTimeEntry appends a logged-hours row
func (r *GormTaskRepository) AddTimeEntry(entry *models.TimeEntry) error {
	return r.db.Create(entry).Error
}

// ListTimeEntriesByTask returns all time entries for a task
func (r *GormTaskRepository) ListTimeEntriesByTask(taskID uint64) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	if err := r.db.Where("task_id = ?", taskID).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListTimeEntriesByProject returns all time entries across a project's tasks
func (r *GormTaskRepository) ListTimeEntriesByProject(projectID uint64) ([]models.TimeEntry, error) {
	var entries []models.TimeEntry
	err := r.db.
		Joins("JOIN tasks ON tasks.id = time_entries.task_id").
		Where("tasks.project_id = ?", projectID).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
