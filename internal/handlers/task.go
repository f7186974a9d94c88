package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/project-management-api/internal/dto"
	apierrors "github.com/projecthub/project-management-api/internal/errors"
	"github.com/projecthub/project-management-api/internal/middleware"
	"github.com/projecthub/project-management-api/internal/models"
	"github.com/projecthub/project-management-api/internal/services"
	"github.com/projecthub/project-management-api/internal/utils"
	"github.com/projecthub/project-management-api/internal/validation"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns tasks visible to the current user.
// Supports project_id, status, priority, assigned_to_me filters and
// allow-listed sorting.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	query, err := utils.GetListQuery(c, validation.TaskSortFields)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	input := services.ListTasksInput{
		Caller:       identity,
		AssignedToMe: c.Query("assigned_to_me") == "true",
		Query:        query,
	}

	if projectIDStr := c.Query("project_id"); projectIDStr != "" {
		projectID, err := strconv.ParseUint(projectIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project_id")
			return
		}
		input.ProjectID = &projectID
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		if !models.IsValidTaskStatus(status) {
			apierrors.BadRequest(c, validation.ErrInvalidTaskStatus.Error())
			return
		}
		input.Status = &status
	}

	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority, err := validation.NormalizePriority(priorityStr)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		input.Priority = &priority
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, query.Page, query.Limit, total))
}

// GetTask returns a specific task by ID.
// Task is already loaded with relations by RequireTaskAccess middleware.
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskInterface, exists := c.Get("task")
	if !exists {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	task, ok := taskInterface.(models.Task)
	if !ok {
		apierrors.InternalError(c, "Invalid task data")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a new task in a project.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string            `json:"title" binding:"required"`
		Description string            `json:"description"`
		Priority    any               `json:"priority"`
		Status      models.TaskStatus `json:"status"`
		Deadline    *time.Time        `json:"deadline"`
		Tags        string            `json:"tags"`
		ParentID    *uint64           `json:"parent_task_id"`
		AssigneeIDs []uint64          `json:"assignee_ids" binding:"required"`
		ProjectID   uint64            `json:"project_id" binding:"required"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		ProjectID: req.ProjectID,
		Draft: validation.TaskDraft{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Status:      req.Status,
			Deadline:    req.Deadline,
			Tags:        req.Tags,
			ParentID:    req.ParentID,
			AssigneeIDs: req.AssigneeIDs,
		},
		Creator: identity,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. A per-caller "hours" field is routed
// to the time log, never to the task row.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	patch, hours, err := buildTaskPatch(rawReq)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	task, err := h.taskService.UpdateTask(services.UpdateTaskInput{
		TaskID: taskID,
		Patch:  patch,
		Hours:  hours,
		Caller: identity,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// TaskHours returns the per-assignee hours summary for a task.
func (h *TaskHandler) TaskHours(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	summary, err := h.taskService.TaskHours(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// buildTaskPatch converts the raw update payload into a typed patch plus the
// optional logged hours. Unknown field types fall through to validation.
func buildTaskPatch(raw map[string]any) (validation.TaskPatch, *float64, error) {
	var patch validation.TaskPatch
	var hours *float64

	if title, ok := raw["title"].(string); ok {
		patch.Title = &title
	}
	if description, ok := raw["description"].(string); ok {
		patch.Description = &description
	}
	if priority, ok := raw["priority"]; ok {
		patch.Priority = priority
	}
	if statusStr, ok := raw["status"].(string); ok {
		status := models.TaskStatus(statusStr)
		patch.Status = &status
	}
	if tags, ok := raw["tags"].(string); ok {
		patch.Tags = &tags
	}
	if archived, ok := raw["archived"].(bool); ok {
		patch.Archived = &archived
	}
	if _, ok := raw["deadline"]; ok {
		// deadline was provided (might be null)
		if raw["deadline"] == nil {
			patch.ClearDeadline = true
		} else if deadlineStr, ok := raw["deadline"].(string); ok {
			parsed, err := time.Parse(time.RFC3339, deadlineStr)
			if err != nil {
				return patch, nil, errors.New("deadline must be RFC3339 formatted")
			}
			patch.Deadline = &parsed
		}
	}
	if projectIDRaw, ok := raw["project_id"]; ok {
		if projectIDNum, ok := projectIDRaw.(float64); ok {
			projectID := uint64(projectIDNum)
			patch.ProjectID = &projectID
		}
	}
	if assigneesRaw, ok := raw["assignee_ids"].([]any); ok {
		assigneeIDs := make([]uint64, 0, len(assigneesRaw))
		for _, idRaw := range assigneesRaw {
			idNum, ok := idRaw.(float64)
			if !ok {
				return patch, nil, errors.New("assignee_ids must be numeric")
			}
			assigneeIDs = append(assigneeIDs, uint64(idNum))
		}
		patch.AssigneeIDs = assigneeIDs
	}
	if hoursRaw, ok := raw["hours"]; ok {
		// Invalid hours are neutralized to zero rather than rejected
		h := coerceHours(hoursRaw)
		hours = &h
	}

	return patch, hours, nil
}

func coerceHours(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		if v < 0 {
			return 0
		}
		return v
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func respondTaskError(c *gin.Context, err error) {
	var permErr *services.PermissionDeniedError
	if errors.As(err, &permErr) {
		apierrors.Forbidden(c, permErr.Reason)
		return
	}

	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrNotProjectMember):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTaskConflict):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, validation.ErrProjectNotActive),
		errors.Is(err, validation.ErrProjectArchived),
		errors.Is(err, validation.ErrProjectReassignment),
		errors.Is(err, validation.ErrInvalidPriority),
		errors.Is(err, validation.ErrInvalidTaskStatus),
		errors.Is(err, validation.ErrTitleRequired),
		errors.Is(err, validation.ErrNoAssignees),
		errors.Is(err, validation.ErrTooManyAssignees):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
