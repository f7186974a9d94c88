package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/projecthub/project-management-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestTaskHandler_CreateTask(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	staff := env.createUser(t, "dev", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	env.addMember(t, project.ID, staff.ID, models.ProjectRoleCollaborator)

	payload := map[string]any{
		"title":        "Implement login",
		"description":  "session based",
		"priority":     "high",
		"project_id":   project.ID,
		"assignee_ids": []uint64{staff.ID},
	}

	w := env.do(t, http.MethodPost, "/api/tasks", payload, staff.ID)
	mustStatus(t, w, http.StatusCreated)

	body := decodeBody(t, w)
	require.Equal(t, "Implement login", body["title"])
	require.Equal(t, float64(10), body["priority"], "legacy 'high' maps to 10")
	require.Equal(t, "pending", body["status"])
}

func TestTaskHandler_CreateTask_ValidationErrors(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	members := make([]uint64, 6)
	project := env.createProject(t, manager)
	for i := range members {
		u := env.createUser(t, fmt.Sprintf("member%d", i), models.GlobalRoleStaff)
		env.addMember(t, project.ID, u.ID, models.ProjectRoleCollaborator)
		members[i] = u.ID
	}

	t.Run("too many assignees", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/tasks", map[string]any{
			"title":        "Overbooked",
			"project_id":   project.ID,
			"assignee_ids": members,
		}, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
		require.Contains(t, w.Body.String(), "You can assign up to 5 members.")
	})

	t.Run("no assignees", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/tasks", map[string]any{
			"title":        "Orphan",
			"project_id":   project.ID,
			"assignee_ids": []uint64{},
		}, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
	})

	t.Run("invalid priority", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/tasks", map[string]any{
			"title":        "Bad priority",
			"priority":     "urgent",
			"project_id":   project.ID,
			"assignee_ids": []uint64{members[0]},
		}, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
		require.Contains(t, w.Body.String(), "Priority must be an integer between 1 and 10")
	})

	t.Run("assignee outside project", func(t *testing.T) {
		outsider := env.createUser(t, "outsider", models.GlobalRoleStaff)
		w := env.do(t, http.MethodPost, "/api/tasks", map[string]any{
			"title":        "Wrong team",
			"project_id":   project.ID,
			"assignee_ids": []uint64{outsider.ID},
		}, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
	})
}

func TestTaskHandler_CreateTask_InactiveProject(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	project := env.createProject(t, manager)
	require.NoError(t, env.db.Model(&models.Project{}).
		Where("id = ?", project.ID).
		Update("status", models.ProjectStatusHold).Error)

	w := env.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":        "Too late",
		"project_id":   project.ID,
		"assignee_ids": []uint64{manager.ID},
	}, manager.ID)
	mustStatus(t, w, http.StatusBadRequest)
	require.Contains(t, w.Body.String(), "Tasks can only be assigned to active projects.")
}

func TestTaskHandler_GetTask_NonMemberGets404(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	outsider := env.createUser(t, "outsider", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	task := env.createTask(t, project.ID, manager, manager.ID)

	// Existence is not leaked to non-members.
	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, outsider.ID)
	mustStatus(t, w, http.StatusNotFound)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, manager.ID)
	mustStatus(t, w, http.StatusOK)
}

func TestTaskHandler_GetTask_HRReadsEverything(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	hr := env.createUser(t, "hr-reviewer", models.GlobalRoleHR)
	project := env.createProject(t, manager)
	task := env.createTask(t, project.ID, manager, manager.ID)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), nil, hr.ID)
	mustStatus(t, w, http.StatusOK)
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	staff := env.createUser(t, "dev", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	env.addMember(t, project.ID, staff.ID, models.ProjectRoleCollaborator)
	task := env.createTask(t, project.ID, manager, staff.ID)

	t.Run("assignee updates own task", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
			"status":   "in_progress",
			"priority": 8,
		}, staff.ID)
		mustStatus(t, w, http.StatusOK)

		body := decodeBody(t, w)
		require.Equal(t, "in_progress", body["status"])
		require.Equal(t, float64(8), body["priority"])
	})

	t.Run("non-assignee collaborator denied", func(t *testing.T) {
		other := env.createUser(t, "bystander", models.GlobalRoleStaff)
		env.addMember(t, project.ID, other.ID, models.ProjectRoleCollaborator)

		w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
			"status": "completed",
		}, other.ID)
		mustStatus(t, w, http.StatusForbidden)
	})

	t.Run("project reassignment rejected", func(t *testing.T) {
		otherProject := env.createProject(t, manager)
		w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
			"project_id": otherProject.ID,
		}, manager.ID)
		mustStatus(t, w, http.StatusBadRequest)
		require.Contains(t, w.Body.String(), "Project assignment cannot be changed after creation.")
	})

	t.Run("deadline cleared with null", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
			"deadline": nil,
		}, manager.ID)
		mustStatus(t, w, http.StatusOK)

		body := decodeBody(t, w)
		require.Nil(t, body["deadline"])
	})
}

func TestTaskHandler_UpdateTask_RejectedPatchLeavesTaskUntouched(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	staff := env.createUser(t, "dev", models.GlobalRoleStaff)
	outsider := env.createUser(t, "outsider", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	env.addMember(t, project.ID, staff.ID, models.ProjectRoleCollaborator)
	task := env.createTask(t, project.ID, manager, staff.ID)

	// A patch that fails assignee validation must not apply any of its
	// other fields either.
	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
		"title":        "sneaky rename",
		"assignee_ids": []uint64{outsider.ID},
	}, manager.ID)
	mustStatus(t, w, http.StatusBadRequest)

	var reloaded models.Task
	require.NoError(t, env.db.First(&reloaded, task.ID).Error)
	require.Equal(t, "Test Task", reloaded.Title)

	var assignments []models.TaskAssignment
	require.NoError(t, env.db.Where("task_id = ?", task.ID).Find(&assignments).Error)
	require.Len(t, assignments, 1)
	require.Equal(t, staff.ID, assignments[0].UserID)
}

func TestTaskHandler_CreateTask_DuplicateAssigneesCollapse(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	members := make([]uint64, 5)
	project := env.createProject(t, manager)
	for i := range members {
		u := env.createUser(t, fmt.Sprintf("member%d", i), models.GlobalRoleStaff)
		env.addMember(t, project.ID, u.ID, models.ProjectRoleCollaborator)
		members[i] = u.ID
	}

	// Six raw IDs but only five distinct users: still within the bound.
	w := env.do(t, http.MethodPost, "/api/tasks", map[string]any{
		"title":        "Shared work",
		"project_id":   project.ID,
		"assignee_ids": []uint64{members[0], members[1], members[2], members[3], members[4], members[0]},
	}, manager.ID)
	mustStatus(t, w, http.StatusCreated)

	body := decodeBody(t, w)
	require.Len(t, body["assignments"], 5)
}

func TestTaskHandler_UpdateTask_HoursLogging(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	staff := env.createUser(t, "dev", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	env.addMember(t, project.ID, staff.ID, models.ProjectRoleCollaborator)
	task := env.createTask(t, project.ID, manager, staff.ID, manager.ID)

	// Two users log hours; a later entry adds to, not replaces, earlier ones.
	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{"hours": 3}, staff.ID)
	mustStatus(t, w, http.StatusOK)
	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{"hours": 2}, manager.ID)
	mustStatus(t, w, http.StatusOK)
	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{"hours": 1.5}, staff.ID)
	mustStatus(t, w, http.StatusOK)

	// Invalid hours are neutralized to zero, not rejected.
	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{"hours": "not-a-number"}, staff.ID)
	mustStatus(t, w, http.StatusOK)
	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{"hours": -4}, manager.ID)
	mustStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks/%d/hours", task.ID), nil, manager.ID)
	mustStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	require.Equal(t, 6.5, body["total_hours"])

	perAssignee := body["per_assignee"].([]any)
	require.Len(t, perAssignee, 2)
}

func TestTaskHandler_ListTasks(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	staff := env.createUser(t, "dev", models.GlobalRoleStaff)
	project := env.createProject(t, manager)
	env.addMember(t, project.ID, staff.ID, models.ProjectRoleCollaborator)

	env.createTask(t, project.ID, manager, staff.ID)
	env.createTask(t, project.ID, manager, manager.ID)

	t.Run("member sees project tasks", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/tasks", nil, staff.ID)
		mustStatus(t, w, http.StatusOK)

		body := decodeBody(t, w)
		require.Equal(t, float64(2), body["total_count"])
	})

	t.Run("assigned_to_me filters", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/tasks?assigned_to_me=true", nil, staff.ID)
		mustStatus(t, w, http.StatusOK)

		body := decodeBody(t, w)
		require.Equal(t, float64(1), body["total_count"])
	})

	t.Run("user with no memberships gets empty page", func(t *testing.T) {
		loner := env.createUser(t, "loner", models.GlobalRoleStaff)
		w := env.do(t, http.MethodGet, "/api/tasks", nil, loner.ID)
		mustStatus(t, w, http.StatusOK)

		body := decodeBody(t, w)
		require.Equal(t, float64(0), body["total_count"])
	})

	t.Run("unknown sort field rejected", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/tasks?sort_by=password_hash", nil, staff.ID)
		mustStatus(t, w, http.StatusBadRequest)
	})

	t.Run("explicit project requires membership", func(t *testing.T) {
		loner := env.createUser(t, "loner2", models.GlobalRoleStaff)
		w := env.do(t, http.MethodGet, fmt.Sprintf("/api/tasks?project_id=%d", project.ID), nil, loner.ID)
		mustStatus(t, w, http.StatusForbidden)
	})
}

func TestTaskHandler_UpdateTask_ArchivedTaskReadOnly(t *testing.T) {
	env := setupTestEnv(t)
	manager := env.createUser(t, "pm", models.GlobalRoleManager)
	project := env.createProject(t, manager)
	task := env.createTask(t, project.ID, manager, manager.ID)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/projects/%d/archive", project.ID), nil, manager.ID)
	mustStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), map[string]any{
		"title": "too late",
	}, manager.ID)
	mustStatus(t, w, http.StatusBadRequest)
	require.Contains(t, w.Body.String(), "Project is archived and read-only.")
}
