package database

import (
	"gorm.io/gorm"

	"github.com/projecthub/project-management-api/internal/validation"
)

// Paginate applies validated pagination to a GORM query
func Paginate(q validation.ListQuery) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(q.Offset()).Limit(q.Limit)
	}
}
