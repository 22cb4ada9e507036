package dto

import (
	"time"

	"github.com/taskledger/taskledger/internal/domain"
)

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"due_date"`
	CreatorID      string     `json:"creator_id"`
	LastModifierID string     `json:"last_modifier_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TasksListResponse represents the response for GET /tasks.
type TasksListResponse struct {
	Tasks  []TaskResponse `json:"tasks"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// DeleteTaskResponse represents the response for DELETE /tasks/:id.
type DeleteTaskResponse struct {
	ID string `json:"id"`
}

// UndoResponse represents the response for POST /undo. Task is null
// when the undone operation was a create (the row no longer exists).
type UndoResponse struct {
	UndoneOperation string        `json:"undone_operation"`
	HistoryID       int64         `json:"history_id"`
	Task            *TaskResponse `json:"task"`
}

// HistoryRecordResponse represents one audit entry in GET /history.
type HistoryRecordResponse struct {
	ID          int64     `json:"id"`
	TargetRowID string    `json:"target_row_id"`
	Operation   string    `json:"operation"`
	ExecutedAt  time.Time `json:"executed_at"`
	FromUndo    bool      `json:"from_undo"`
	Used        bool      `json:"used"`
}

// HistoryListResponse represents the response for GET /history.
type HistoryListResponse struct {
	Records []HistoryRecordResponse `json:"records"`
	Total   int                     `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

// ToTaskResponse converts domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Status:         string(task.Status),
		DueDate:        task.DueDate,
		CreatorID:      task.CreatorID,
		LastModifierID: task.LastModifierID,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}
}

// ToHistoryRecordResponse converts domain.HistoryRecord to HistoryRecordResponse.
func ToHistoryRecordResponse(rec *domain.HistoryRecord) HistoryRecordResponse {
	return HistoryRecordResponse{
		ID:          rec.ID,
		TargetRowID: rec.TargetRowID,
		Operation:   rec.Operation.String(),
		ExecutedAt:  rec.ExecutedAt,
		FromUndo:    rec.FromUndo,
		Used:        rec.Used,
	}
}
