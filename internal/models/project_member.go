package models

import "time"

type ProjectRole string

const (
	ProjectRoleCreator      ProjectRole = "creator"
	ProjectRoleManager      ProjectRole = "manager"
	ProjectRoleCollaborator ProjectRole = "collaborator"
)

type ProjectMember struct {
	ProjectID uint64      `gorm:"primarykey" json:"project_id"`
	UserID    uint64      `gorm:"primarykey" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsValidProjectRole reports whether the value is a recognized project role.
func IsValidProjectRole(role ProjectRole) bool {
	switch role {
	case ProjectRoleCreator, ProjectRoleManager, ProjectRoleCollaborator:
		return true
	}
	return false
}
