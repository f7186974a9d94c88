package validation

import (
	"testing"
	"time"

	"github.com/projecthub/project-management-api/internal/models"
	"github.com/stretchr/testify/require"
)

func activeProject() *models.Project {
	return &models.Project{ID: 1, Name: "p", Status: models.ProjectStatusActive}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    int
		wantErr bool
	}{
		{"int in range", 7, 7, false},
		{"int low bound", 1, 1, false},
		{"int high bound", 10, 10, false},
		{"int too low", 0, 0, true},
		{"int too high", 11, 0, true},
		{"json number", float64(3), 3, false},
		{"fractional rejected", 3.5, 0, true},
		{"legacy low", "low", 1, false},
		{"legacy medium", "medium", 5, false},
		{"legacy high", "high", 10, false},
		{"numeric string", "8", 8, false},
		{"garbage string", "urgent", 0, true},
		{"wrong type", true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePriority(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPriority)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePriority_Idempotent(t *testing.T) {
	// Normalizing an already-normalized value must be a no-op.
	for _, raw := range []any{"low", "medium", "high", 1, 5, 10} {
		once, err := NormalizePriority(raw)
		require.NoError(t, err)
		twice, err := NormalizePriority(once)
		require.NoError(t, err)
		require.Equal(t, once, twice)
	}
}

func TestCheckAssigneeCount(t *testing.T) {
	require.ErrorIs(t, CheckAssigneeCount(0), ErrNoAssignees)
	require.NoError(t, CheckAssigneeCount(1))
	require.NoError(t, CheckAssigneeCount(5))
	require.ErrorIs(t, CheckAssigneeCount(6), ErrTooManyAssignees)
}

func TestValidateCreate(t *testing.T) {
	base := TaskDraft{
		Title:       "write report",
		AssigneeIDs: []uint64{1},
	}

	t.Run("defaults applied", func(t *testing.T) {
		draft, err := ValidateCreate(base, activeProject())
		require.NoError(t, err)
		require.Equal(t, 5, draft.Priority)
		require.Equal(t, models.TaskStatusPending, draft.Status)
	})

	t.Run("legacy priority mapped", func(t *testing.T) {
		d := base
		d.Priority = "high"
		draft, err := ValidateCreate(d, activeProject())
		require.NoError(t, err)
		require.Equal(t, 10, draft.Priority)
	})

	t.Run("inactive project rejected", func(t *testing.T) {
		for _, status := range []models.ProjectStatus{
			models.ProjectStatusHold,
			models.ProjectStatusCompleted,
			models.ProjectStatusArchived,
		} {
			project := activeProject()
			project.Status = status
			_, err := ValidateCreate(base, project)
			require.ErrorIs(t, err, ErrProjectNotActive, "status %s", status)
		}
	})

	t.Run("missing title rejected", func(t *testing.T) {
		d := base
		d.Title = ""
		_, err := ValidateCreate(d, activeProject())
		require.ErrorIs(t, err, ErrTitleRequired)
	})

	t.Run("no assignees rejected", func(t *testing.T) {
		d := base
		d.AssigneeIDs = nil
		_, err := ValidateCreate(d, activeProject())
		require.ErrorIs(t, err, ErrNoAssignees)
	})

	t.Run("too many assignees rejected", func(t *testing.T) {
		d := base
		d.AssigneeIDs = []uint64{1, 2, 3, 4, 5, 6}
		_, err := ValidateCreate(d, activeProject())
		require.ErrorIs(t, err, ErrTooManyAssignees)
	})

	t.Run("bad status rejected", func(t *testing.T) {
		d := base
		d.Status = "someday"
		_, err := ValidateCreate(d, activeProject())
		require.ErrorIs(t, err, ErrInvalidTaskStatus)
	})
}

func TestValidateUpdate(t *testing.T) {
	existing := &models.Task{ID: 1, Title: "t", ProjectID: 1, Priority: 5}

	t.Run("archived project is read-only", func(t *testing.T) {
		project := activeProject()
		project.Status = models.ProjectStatusArchived
		title := "new"
		_, err := ValidateUpdate(existing, TaskPatch{Title: &title}, project)
		require.ErrorIs(t, err, ErrProjectArchived)
		require.EqualError(t, err, "Project is archived and read-only.")
	})

	t.Run("project reassignment rejected", func(t *testing.T) {
		other := uint64(2)
		_, err := ValidateUpdate(existing, TaskPatch{ProjectID: &other}, activeProject())
		require.ErrorIs(t, err, ErrProjectReassignment)
	})

	t.Run("same project id is not a reassignment", func(t *testing.T) {
		same := uint64(1)
		_, err := ValidateUpdate(existing, TaskPatch{ProjectID: &same}, activeProject())
		require.NoError(t, err)
	})

	t.Run("priority normalized", func(t *testing.T) {
		p, err := ValidateUpdate(existing, TaskPatch{Priority: "medium"}, activeProject())
		require.NoError(t, err)
		require.Equal(t, 5, p)
	})

	t.Run("assignee bound applies to the resulting set", func(t *testing.T) {
		_, err := ValidateUpdate(existing, TaskPatch{AssigneeIDs: []uint64{}}, activeProject())
		require.ErrorIs(t, err, ErrNoAssignees)
	})

	t.Run("deadline patch passes through", func(t *testing.T) {
		deadline := time.Now().Add(24 * time.Hour)
		_, err := ValidateUpdate(existing, TaskPatch{Deadline: &deadline}, activeProject())
		require.NoError(t, err)
	})
}
