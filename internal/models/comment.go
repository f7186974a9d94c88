package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID              uint64         `gorm:"primarykey" json:"id"`
	TaskID          uint64         `gorm:"not null;index" json:"task_id"`
	AuthorID        uint64         `gorm:"not null" json:"author_id"`
	ParentCommentID *uint64        `gorm:"index" json:"parent_comment_id"`
	Body            string         `gorm:"type:text;not null" json:"body"`
	Edited          bool           `gorm:"not null;default:false" json:"edited"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Task   Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
