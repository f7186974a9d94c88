package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/projecthub/project-management-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestProjectHandler_CreateProject(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("manager creates project", func(t *testing.T) {
		manager := env.createUser(t, "pm", models.GlobalRoleManager)

		w := env.do(t, http.MethodPost, "/api/projects", map[string]string{
			"name":        "New Platform",
			"description": "Rebuild the billing platform",
		}, manager.ID)
		mustStatus(t, w, http.StatusCreated)

		body := decodeBody(t, w)
		require.Equal(t, "New Platform", body["name"])
		require.Equal(t, "active", body["status"])

		// Creator membership is recorded with the project.
		var member models.ProjectMember
		require.NoError(t, env.db.Where("user_id = ?", manager.ID).First(&member).Error)
		require.Equal(t, models.ProjectRoleCreator, member.Role)
	})

	t.Run("staff denied", func(t *testing.T) {
		staff := env.createUser(t, "dev", models.GlobalRoleStaff)

		w := env.do(t, http.MethodPost, "/api/projects", map[string]string{
			"name":        "Side Project",
			"description": "nope",
		}, staff.ID)
		mustStatus(t, w, http.StatusForbidden)
		require.Contains(t, w.Body.String(), "insufficient role")
	})

	t.Run("admin allowed", func(t *testing.T) {
		admin := env.createUser(t, "root", models.GlobalRoleAdmin)

		w := env.do(t, http.MethodPost, "/api/projects", map[string]string{
			"name":        "Admin Project",
			"description": "top down",
		}, admin.ID)
		mustStatus(t, w, http.StatusCreated)
	})
}

func TestProjectHandler_GetProject_NonMemberGets404(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	outsider := env.createUser(t, "outsider", models.GlobalRoleStaff)
	project := env.createProject(t, manager)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil, outsider.ID)
	mustStatus(t, w, http.StatusNotFound)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil, manager.ID)
	mustStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	require.Equal(t, "creator", body["your_role"])
}

func TestProjectHandler_UpdateProject(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	collab := env.createUser(t, "dev", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	env.addMember(t, project.ID, collab.ID, models.ProjectRoleCollaborator)

	t.Run("creator edits", func(t *testing.T) {
		w := env.do(t, http.MethodPut, fmt.Sprintf("/api/projects/%d", project.ID), map[string]string{
			"name":   "Renamed",
			"status": "hold",
		}, manager.ID)
		mustStatus(t, w, http.StatusOK)

		body := decodeBody(t, w)
		require.Equal(t, "Renamed", body["name"])
		require.Equal(t, "hold", body["status"])
	})

	t.Run("collaborator denied", func(t *testing.T) {
		w := env.do(t, http.MethodPut, fmt.Sprintf("/api/projects/%d", project.ID), map[string]string{
			"name": "Hijacked",
		}, collab.ID)
		mustStatus(t, w, http.StatusForbidden)
	})

	t.Run("archived is not settable via update", func(t *testing.T) {
		w := env.do(t, http.MethodPut, fmt.Sprintf("/api/projects/%d", project.ID), map[string]string{
			"status": "archived",
		}, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
	})
}

func TestProjectHandler_ArchiveCascade(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	projectManager := env.createUser(t, "lead", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	env.addMember(t, project.ID, projectManager.ID, models.ProjectRoleManager)
	task := env.createTask(t, project.ID, manager, manager.ID)

	t.Run("project manager cannot archive", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/archive", project.ID), nil, projectManager.ID)
		mustStatus(t, w, http.StatusForbidden)
	})

	t.Run("creator archives and tasks cascade", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/archive", project.ID), nil, manager.ID)
		mustStatus(t, w, http.StatusOK)

		var reloaded models.Task
		require.NoError(t, env.db.First(&reloaded, task.ID).Error)
		require.True(t, reloaded.Archived, "archive must cascade to tasks")
	})

	t.Run("archived project rejects further edits", func(t *testing.T) {
		w := env.do(t, http.MethodPut, fmt.Sprintf("/api/projects/%d", project.ID), map[string]string{
			"name": "zombie",
		}, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
		require.Contains(t, w.Body.String(), "Project is archived and read-only.")
	})

	t.Run("double archive rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/archive", project.ID), nil, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
	})
}

func TestProjectHandler_AddMembers(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	dev1 := env.createUser(t, "dev1", models.GlobalRoleStaff)
	dev2 := env.createUser(t, "dev2", models.GlobalRoleStaff)
	project := env.createProject(t, manager)

	t.Run("creator adds collaborators", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/members", project.ID), map[string]any{
			"user_ids": []uint64{dev1.ID, dev2.ID},
			"role":     "collaborator",
		}, manager.ID)
		mustStatus(t, w, http.StatusOK)

		body := decodeBody(t, w)
		require.Len(t, body["members"], 3) // creator + two collaborators
	})

	t.Run("creator role cannot be granted", func(t *testing.T) {
		dev3 := env.createUser(t, "dev3", models.GlobalRoleStaff)
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/members", project.ID), map[string]any{
			"user_ids": []uint64{dev3.ID},
			"role":     "creator",
		}, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
	})

	t.Run("unknown user rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/members", project.ID), map[string]any{
			"user_ids": []uint64{99999},
			"role":     "collaborator",
		}, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
	})

	t.Run("collaborator cannot add members", func(t *testing.T) {
		dev4 := env.createUser(t, "dev4", models.GlobalRoleStaff)
		w := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/members", project.ID), map[string]any{
			"user_ids": []uint64{dev4.ID},
			"role":     "collaborator",
		}, dev1.ID)
		mustStatus(t, w, http.StatusForbidden)
	})
}

func TestProjectHandler_RemoveMember(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	admin := env.createUser(t, "root", models.GlobalRoleAdmin)
	dev := env.createUser(t, "dev", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	env.addMember(t, project.ID, dev.ID, models.ProjectRoleCollaborator)

	t.Run("creator cannot be removed even by admin", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d/members/%d", project.ID, manager.ID), nil, admin.ID)
		mustStatus(t, w, http.StatusConflict)
		require.Contains(t, w.Body.String(), "creator")
	})

	t.Run("sole assignee blocks removal", func(t *testing.T) {
		env.createTask(t, project.ID, manager, dev.ID)

		w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d/members/%d", project.ID, dev.ID), nil, manager.ID)
		mustStatus(t, w, http.StatusConflict)
		require.Contains(t, w.Body.String(), "only assignee")
	})

	t.Run("removal succeeds once tasks are shared", func(t *testing.T) {
		// Reassign the task so dev is no longer the sole assignee.
		var task models.Task
		require.NoError(t, env.db.Where("project_id = ?", project.ID).First(&task).Error)

		w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
			"assignee_ids": []uint64{dev.ID, manager.ID},
		}, manager.ID)
		mustStatus(t, w, http.StatusOK)

		w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/projects/%d/members/%d", project.ID, dev.ID), nil, manager.ID)
		mustStatus(t, w, http.StatusOK)
	})
}

func TestProjectHandler_ProjectHours(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	hr := env.createUser(t, "hr-reviewer", models.GlobalRoleHR)
	outsider := env.createUser(t, "outsider", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	taskA := env.createTask(t, project.ID, manager, manager.ID)
	taskB := env.createTask(t, project.ID, manager, manager.ID)

	env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", taskA.ID), map[string]any{"hours": 3}, manager.ID)
	env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", taskB.ID), map[string]any{"hours": 2.5}, manager.ID)

	t.Run("member reads rollup", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d/hours", project.ID), nil, manager.ID)
		mustStatus(t, w, http.StatusOK)

		body := decodeBody(t, w)
		require.Equal(t, 5.5, body["total_hours"])
		require.Len(t, body["per_task"], 2)
	})

	t.Run("hr reads any project report", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d/hours", project.ID), nil, hr.ID)
		mustStatus(t, w, http.StatusOK)
	})

	t.Run("non-member gets 404 like every project route", func(t *testing.T) {
		// The report must not confirm project existence to outsiders.
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/projects/%d/hours", project.ID), nil, outsider.ID)
		mustStatus(t, w, http.StatusNotFound)
	})
}
