package validation

import (
	"errors"
	"strconv"

	"github.com/projecthub/project-management-api/internal/constants"
)

var (
	ErrInvalidSortField = errors.New("Invalid sort field")
	ErrInvalidSortOrder = errors.New("Sort order must be 'asc' or 'desc'")
	ErrInvalidPage      = errors.New("Page must be a positive integer")
	ErrInvalidLimit     = errors.New("Limit must be a positive integer")
)

// Sortable fields per entity. Anything else is rejected, not passed through
// to SQL.
var (
	TaskSortFields = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"deadline":   true,
		"priority":   true,
		"status":     true,
		"title":      true,
	}
	ProjectSortFields = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"status":     true,
	}
)

// ListQuery holds validated list parameters.
type ListQuery struct {
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Offset returns the row offset for the validated page/limit.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ValidateListQuery validates raw query parameters against an entity's sort
// allow-list. Empty strings take defaults; malformed values are rejected.
func ValidateListQuery(sortBy, sortOrder, page, limit string, allowedSortFields map[string]bool) (ListQuery, error) {
	q := ListQuery{
		SortBy:    "created_at",
		SortOrder: "desc",
		Page:      constants.DefaultPage,
		Limit:     constants.DefaultPageSize,
	}

	if sortBy != "" {
		if !allowedSortFields[sortBy] {
			return q, ErrInvalidSortField
		}
		q.SortBy = sortBy
	}

	if sortOrder != "" {
		if sortOrder != "asc" && sortOrder != "desc" {
			return q, ErrInvalidSortOrder
		}
		q.SortOrder = sortOrder
	}

	if page != "" {
		p, err := strconv.Atoi(page)
		if err != nil || p < 1 {
			return q, ErrInvalidPage
		}
		q.Page = p
	}

	if limit != "" {
		l, err := strconv.Atoi(limit)
		if err != nil || l < 1 {
			return q, ErrInvalidLimit
		}
		if l > constants.MaxPageSize {
			l = constants.MaxPageSize
		}
		q.Limit = l
	}

	return q, nil
}
