// Package timesheet aggregates logged hours across assignees. Invalid hour
// values (NaN, infinite, negative) are neutralized to zero rather than
// rejected, so one bad entry never poisons a report.
package timesheet

import (
	"math"

	"github.com/projecthub/project-management-api/internal/models"
)

// Entry is one raw (user, hours) record.
type Entry struct {
	UserID uint64
	Hours  float64
}

// AssigneeHours is the per-user bucket in a summary.
type AssigneeHours struct {
	UserID uint64  `json:"user_id"`
	Hours  float64 `json:"hours"`
}

// Summary is the aggregate over a task's (or project's) time entries.
// PerAssignee ordering is unspecified; consumers sort for display.
type Summary struct {
	TotalHours  float64         `json:"total_hours"`
	PerAssignee []AssigneeHours `json:"per_assignee"`
}

// sanitizeHours clamps invalid values to zero. The entry still counts toward
// the assignee's presence in the summary.
func sanitizeHours(hours float64) float64 {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours < 0 {
		return 0
	}
	return hours
}

// Summarize groups entries by user, summing repeated entries per user, and
// totals across all buckets.
func Summarize(entries []Entry) Summary {
	perUser := make(map[uint64]float64, len(entries))
	order := make([]uint64, 0, len(entries))

	for _, e := range entries {
		if _, seen := perUser[e.UserID]; !seen {
			order = append(order, e.UserID)
		}
		perUser[e.UserID] += sanitizeHours(e.Hours)
	}

	summary := Summary{PerAssignee: make([]AssigneeHours, 0, len(order))}
	for _, userID := range order {
		hours := perUser[userID]
		summary.PerAssignee = append(summary.PerAssignee, AssigneeHours{UserID: userID, Hours: hours})
		summary.TotalHours += hours
	}

	return summary
}

// FromTimeEntries adapts stored rows to aggregation entries.
func FromTimeEntries(rows []models.TimeEntry) []Entry {
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{UserID: row.UserID, Hours: row.Hours}
	}
	return entries
}

// ProjectEntry is one raw (task, user, hours) record for project rollups.
type ProjectEntry struct {
	TaskID uint64
	UserID uint64
	Hours  float64
}

// TaskHours is the per-task bucket in a project rollup.
type TaskHours struct {
	TaskID uint64  `json:"task_id"`
	Hours  float64 `json:"hours"`
}

// ProjectSummary rolls a project's time entries up by task, with the same
// neutralization and summation rules as the per-task summary.
type ProjectSummary struct {
	TotalHours float64     `json:"total_hours"`
	PerTask    []TaskHours `json:"per_task"`
}

// SummarizeByTask groups project-wide entries by task.
func SummarizeByTask(entries []ProjectEntry) ProjectSummary {
	perTask := make(map[uint64]float64, len(entries))
	order := make([]uint64, 0, len(entries))

	for _, e := range entries {
		if _, seen := perTask[e.TaskID]; !seen {
			order = append(order, e.TaskID)
		}
		perTask[e.TaskID] += sanitizeHours(e.Hours)
	}

	summary := ProjectSummary{PerTask: make([]TaskHours, 0, len(order))}
	for _, taskID := range order {
		hours := perTask[taskID]
		summary.PerTask = append(summary.PerTask, TaskHours{TaskID: taskID, Hours: hours})
		summary.TotalHours += hours
	}

	return summary
}
