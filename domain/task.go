package domain

import "time"

// Priority classifies how urgent a task is. Sorting relies on Rank, not on
// the string value itself.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority validates a raw priority value. Unknown values return ok=false
// so callers can degrade to "no filter" instead of failing.
func ParsePriority(raw string) (Priority, bool) {
	switch Priority(raw) {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(raw), true
	}
	return "", false
}

// Rank maps priorities onto sortable integers, urgent first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// TaskType distinguishes simple to-dos from project-level items.
type TaskType string

const (
	TypeSimple  TaskType = "simple"
	TypeProject TaskType = "project"
)

// ParseTaskType validates a raw task type, ok=false for unknown values.
func ParseTaskType(raw string) (TaskType, bool) {
	switch TaskType(raw) {
	case TypeSimple, TypeProject:
		return TaskType(raw), true
	}
	return "", false
}

// Task represents a unit of work, either standalone or the read-through
// projection of a recurring instance. StartDate and DueDate carry calendar
// days; DueTime is display-only and never participates in date membership.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	DueTime     string     `json:"due_time,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Priority    Priority   `json:"priority"`
	Type        TaskType   `json:"type"`
	Order       *int       `json:"order,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Project     string     `json:"project,omitempty"`

	SharedByMe   bool   `json:"shared_by_me,omitempty"`
	SharedWithMe bool   `json:"shared_with_me,omitempty"`
	GroupID      string `json:"group_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CompletionDay returns the calendar day a completed task counts against.
// A completed task missing its CompletedAt timestamp is a data-integrity
// problem; UpdatedAt stands in and inconsistent=true tells the caller to warn.
func (t *Task) CompletionDay() (day time.Time, inconsistent bool) {
	if t.CompletedAt != nil {
		return DayOf(*t.CompletedAt), false
	}
	return DayOf(t.UpdatedAt), true
}
