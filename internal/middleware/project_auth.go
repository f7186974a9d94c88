package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/project-management-api/internal/database"
	"github.com/projecthub/project-management-api/internal/models"
)

// RequireProjectAccess checks if the user may read the project. Members see
// their projects; admin and hr read any project. Non-members get a 404 to
// avoid leaking project existence.
func RequireProjectAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		projectIDStr := c.Param("id")
		projectID, err := strconv.ParseUint(projectIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid project ID",
			})
			c.Abort()
			return
		}

		identity, exists := GetIdentity(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		var project models.Project
		if err := database.GetDB().First(&project, projectID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Project not found",
			})
			c.Abort()
			return
		}

		c.Set("project", project)

		if identity.GlobalRole == models.GlobalRoleAdmin || identity.GlobalRole == models.GlobalRoleHR {
			c.Next()
			return
		}

		var member models.ProjectMember
		err = database.GetDB().Where("project_id = ? AND user_id = ?", projectID, identity.UserID).First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking project existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Project not found",
			})
			c.Abort()
			return
		}

		c.Set("project_member", member)
		c.Next()
	}
}
