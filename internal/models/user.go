package models

import (
	"time"

	"gorm.io/gorm"
)

type GlobalRole string

const (
	GlobalRoleStaff   GlobalRole = "staff"
	GlobalRoleManager GlobalRole = "manager"
	GlobalRoleAdmin   GlobalRole = "admin"
	GlobalRoleHR      GlobalRole = "hr"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	GlobalRole   GlobalRole     `gorm:"type:varchar(20);not null;default:'staff'" json:"global_role"`
	Hierarchy    int            `gorm:"not null;default:0" json:"hierarchy"`
	Division     string         `gorm:"type:varchar(100)" json:"division"`
	Department   string         `gorm:"type:varchar(100)" json:"department"`
	Active       bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedProjects []Project        `gorm:"foreignKey:CreatorID" json:"-"`
	Memberships     []ProjectMember  `gorm:"foreignKey:UserID" json:"-"`
	Assignments     []TaskAssignment `gorm:"foreignKey:UserID" json:"-"`
}

// IsValidGlobalRole reports whether the value is a recognized global role.
func IsValidGlobalRole(role GlobalRole) bool {
	switch role {
	case GlobalRoleStaff, GlobalRoleManager, GlobalRoleAdmin, GlobalRoleHR:
		return true
	}
	return false
}
