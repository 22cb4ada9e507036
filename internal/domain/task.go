package domain

import "time"

// TaskStatus represents the board column a task currently lives in.
type TaskStatus string

const (
	TaskStatusTodo  TaskStatus = "TODO"
	TaskStatusDoing TaskStatus = "DOING"
	TaskStatusDone  TaskStatus = "DONE"
)

// IsValid checks if the status is one of the allowed values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusDoing, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Task represents a unit of work owned by a user.
// CreatorID is assigned once at creation and never changes;
// LastModifierID tracks the user behind the most recent mutation.
type Task struct {
	ID             string
	Title          string
	Description    string
	Status         TaskStatus
	DueDate        *time.Time
	CreatorID      string
	LastModifierID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsCreatedBy checks if the task was created by the given user.
func (t *Task) IsCreatedBy(userID string) bool {
	return t.CreatorID == userID
}

// IsOverdue checks if the task has a due date in the past and is not done.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusDone
}
