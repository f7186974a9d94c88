package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/project-management-api/internal/dto"
	apierrors "github.com/projecthub/project-management-api/internal/errors"
	"github.com/projecthub/project-management-api/internal/middleware"
	"github.com/projecthub/project-management-api/internal/models"
	"github.com/projecthub/project-management-api/internal/services"
)

// ProjectHandler coordinates project-related HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject creates a new project with the caller as creator.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProjectRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description" binding:"required"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Creator:     identity,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// ListProjects returns the caller's projects with their membership role.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.projectService.ListProjectsForUser(userID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	projects := make([]dto.ProjectWithRoleDTO, len(memberships))
	for i, m := range memberships {
		projects[i] = dto.ToProjectWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProject returns a project with its members.
// Access is already verified by RequireProjectAccess middleware.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	project, members, err := h.projectService.GetProjectWithMembers(projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	var yourRole models.ProjectRole
	if memberInterface, exists := c.Get("project_member"); exists {
		if member, ok := memberInterface.(models.ProjectMember); ok {
			yourRole = member.Role
		}
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*project, members, yourRole))
}

// UpdateProject edits project fields.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	type UpdateProjectRequest struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Status      *models.ProjectStatus `json:"status"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(projectID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	}, identity)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// ArchiveProject archives the project and all of its tasks.
func (h *ProjectHandler) ArchiveProject(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	project, err := h.projectService.ArchiveProject(projectID, identity)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// AddMembers adds users to the project with a given role.
func (h *ProjectHandler) AddMembers(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	type AddMembersRequest struct {
		UserIDs []uint64           `json:"user_ids" binding:"required"`
		Role    models.ProjectRole `json:"role" binding:"required"`
		Message string             `json:"message"`
	}

	var req AddMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if len(req.UserIDs) == 0 {
		apierrors.BadRequest(c, "At least one user ID is required")
		return
	}

	members, err := h.projectService.AddUsersToProject(services.AddUsersInput{
		ProjectID: projectID,
		UserIDs:   req.UserIDs,
		Role:      req.Role,
		Inviter:   identity,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	memberDTOs := make([]dto.ProjectMemberDTO, len(members))
	for i, m := range members {
		memberDTOs[i] = dto.ToProjectMemberDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"members": memberDTOs})
}

// RemoveMember removes a user from the project.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.projectService.RemoveUserFromProject(projectID, targetID, identity); err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// ProjectHours returns the project-level hours rollup.
func (h *ProjectHandler) ProjectHours(c *gin.Context) {
	identity, exists := middleware.GetIdentity(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	summary, err := h.projectService.ProjectHours(projectID, identity)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func respondProjectError(c *gin.Context, err error) {
	var permErr *services.PermissionDeniedError
	if errors.As(err, &permErr) {
		apierrors.Forbidden(c, permErr.Reason)
		return
	}

	switch {
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrProjectMemberNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrProjectNameRequired),
		errors.Is(err, services.ErrProjectDescRequired),
		errors.Is(err, services.ErrInvalidProjectStatus),
		errors.Is(err, services.ErrInvalidMemberRole),
		errors.Is(err, services.ErrCreatorRoleReserved),
		errors.Is(err, services.ErrMemberUserNotFound),
		errors.Is(err, services.ErrProjectArchivedRO):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCannotRemoveCreator),
		errors.Is(err, services.ErrMemberHasSoleTasks):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrHoursReportRestricted):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
