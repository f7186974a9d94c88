package constants

// Session / context keys
const (
	SessionCookieName = "project_session"
	ContextKeyUserID  = "user_id"
)

// Pagination
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Task constraints
const (
	MinTaskAssignees = 1
	MaxTaskAssignees = 5
	MinTaskPriority  = 1
	MaxTaskPriority  = 10
	DefaultPriority  = 5
)

// Auth
const (
	MinPasswordLength = 8
)
