package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/project-management-api/internal/constants"
	"github.com/projecthub/project-management-api/internal/database"
	"github.com/projecthub/project-management-api/internal/middleware"
	"github.com/projecthub/project-management-api/internal/models"
	"github.com/projecthub/project-management-api/internal/rbac"
	"github.com/projecthub/project-management-api/internal/repository"
	"github.com/projecthub/project-management-api/internal/services"
	"github.com/projecthub/project-management-api/internal/validation"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv wires the full handler stack over an in-memory database.
type testEnv struct {
	db             *gorm.DB
	router         *gin.Engine
	authService    *services.AuthService
	projectService *services.ProjectService
	taskService    *services.TaskService
	commentService *services.CommentService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Unique shared-cache DSN per test so every pooled connection sees the
	// same database without leaking state across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.TimeEntry{},
		&models.Comment{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	env := &testEnv{
		db:             db,
		authService:    services.NewAuthService(userRepo),
		projectService: services.NewProjectService(projectRepo, taskRepo, userRepo),
		taskService:    services.NewTaskService(taskRepo, projectRepo),
		commentService: services.NewCommentService(commentRepo, taskRepo, projectRepo),
	}

	authHandler := NewAuthHandler(env.authService)
	projectHandler := NewProjectHandler(env.projectService)
	taskHandler := NewTaskHandler(env.taskService)
	commentHandler := NewCommentHandler(env.commentService)

	r := gin.New()
	r.Use(testAuth())

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.GET("/me", authHandler.GetCurrentUser)
		}

		projects := api.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", middleware.RequireProjectAccess(), projectHandler.GetProject)
			projects.PUT("/:id", middleware.RequireProjectAccess(), projectHandler.UpdateProject)
			projects.POST("/:id/archive", middleware.RequireProjectAccess(), projectHandler.ArchiveProject)
			projects.POST("/:id/members", middleware.RequireProjectAccess(), projectHandler.AddMembers)
			projects.DELETE("/:id/members/:user_id", middleware.RequireProjectAccess(), projectHandler.RemoveMember)
			projects.GET("/:id/hours", middleware.RequireProjectAccess(), projectHandler.ProjectHours)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", middleware.RequireTaskAccess(), taskHandler.GetTask)
			tasks.PATCH("/:id", middleware.RequireTaskAccess(), taskHandler.UpdateTask)
			tasks.GET("/:id/hours", middleware.RequireTaskAccess(), taskHandler.TaskHours)
			tasks.POST("/:id/comments", middleware.RequireTaskAccess(), commentHandler.CreateComment)
			tasks.GET("/:id/comments", middleware.RequireTaskAccess(), commentHandler.ListComments)
		}

		comments := api.Group("/comments")
		{
			comments.PATCH("/:id", commentHandler.EditComment)
		}
	}
	env.router = r

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return env
}

// testAuth stands in for the session middleware: the acting user comes from a
// request header.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if userID, err := strconv.ParseUint(raw, 10, 64); err == nil {
				c.Set(constants.ContextKeyUserID, userID)
			}
		}
		c.Next()
	}
}

// do performs a JSON request against the test router as the given user.
func (env *testEnv) do(t *testing.T, method, path string, body any, userID uint64) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", strconv.FormatUint(userID, 10))
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (env *testEnv) createUser(t *testing.T, username string, role models.GlobalRole) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "x",
		GlobalRole:   role,
		Active:       true,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *testEnv) createProject(t *testing.T, creator *models.User) *models.Project {
	t.Helper()
	project, err := env.projectService.CreateProject(services.CreateProjectInput{
		Name:        "Test Project",
		Description: "A project used in tests",
		Creator:     rbac.IdentityFromUser(creator),
	})
	require.NoError(t, err)
	return project
}

func (env *testEnv) addMember(t *testing.T, projectID, userID uint64, role models.ProjectRole) {
	t.Helper()
	require.NoError(t, env.db.Create(&models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
		JoinedAt:  time.Now(),
	}).Error)
}

func (env *testEnv) createTask(t *testing.T, projectID uint64, creator *models.User, assigneeIDs ...uint64) *models.Task {
	t.Helper()
	task, err := env.taskService.CreateTask(services.CreateTaskInput{
		ProjectID: projectID,
		Draft: validation.TaskDraft{
			Title:       "Test Task",
			AssigneeIDs: assigneeIDs,
		},
		Creator: rbac.IdentityFromUser(creator),
	})
	require.NoError(t, err)
	return task
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "response body: %s", w.Body.String())
}
