package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusBlocked    TaskStatus = "blocked"
)

type Task struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Status       TaskStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Priority     int            `gorm:"not null;default:5" json:"priority"`
	Deadline     *time.Time     `json:"deadline"`
	Tags         string         `gorm:"type:varchar(500)" json:"tags"`
	ParentTaskID *uint64        `gorm:"index" json:"parent_task_id"`
	Archived     bool           `gorm:"not null;default:false" json:"archived"`
	ProjectID    uint64         `gorm:"not null;index" json:"project_id"`
	CreatorID    uint64         `gorm:"not null" json:"creator_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator     User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Project     Project          `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ParentTask  *Task            `gorm:"foreignKey:ParentTaskID" json:"parent_task,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
	Comments    []Comment        `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	TimeEntries []TimeEntry      `gorm:"foreignKey:TaskID" json:"-"`
}

// IsValidTaskStatus reports whether the value is a recognized task status.
func IsValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled, TaskStatusBlocked:
		return true
	}
	return false
}
