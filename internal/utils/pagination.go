package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/projecthub/project-management-api/internal/validation"
)

// PaginationResponse represents the pagination metadata in API responses
type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// GetListQuery extracts and validates list parameters from the request
// against the entity's sort allow-list.
func GetListQuery(c *gin.Context, allowedSortFields map[string]bool) (validation.ListQuery, error) {
	return validation.ValidateListQuery(
		c.Query("sort_by"),
		c.Query("sort_order"),
		c.Query("page"),
		c.Query("limit"),
		allowedSortFields,
	)
}
