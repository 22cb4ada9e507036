package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskledger/taskledger/internal/domain"
)

func TestTaskSnapshot_RoundTrip(t *testing.T) {
	due := time.Date(2026, 9, 4, 12, 0, 0, 0, time.UTC)
	task := &domain.Task{
		ID:             "9f1c2a34-0000-0000-0000-000000000abc",
		Title:          "Rotate keys",
		Description:    "quarterly",
		Status:         domain.TaskStatusDoing,
		DueDate:        &due,
		CreatorID:      "00000000-0000-0000-0000-000000000001",
		LastModifierID: "00000000-0000-0000-0000-000000000002",
		CreatedAt:      time.Date(2026, 8, 30, 10, 30, 0, 123456000, time.UTC),
		UpdatedAt:      time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC),
	}

	raw, err := EncodeSnapshot(TaskSnapshot(task))
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(raw)
	require.NoError(t, err)

	assert.Equal(t, task.ID, decoded["id"])
	assert.Equal(t, "Rotate keys", decoded["title"])
	assert.Equal(t, string(domain.TaskStatusDoing), decoded["status"])
	// Timestamps survive as RFC3339 text and keep sub-second precision.
	assert.Equal(t, "2026-08-30T10:30:00.123456Z", decoded["created_at"])
	assert.Equal(t, "2026-09-04T12:00:00Z", decoded["due_date"])
}

func TestTaskSnapshot_NullDueDate(t *testing.T) {
	snap := TaskSnapshot(&domain.Task{ID: "x", Title: "no deadline"})

	val, ok := snap["due_date"]
	require.True(t, ok, "due_date key present even when unset")
	assert.Nil(t, val)
}

func TestDecodeSnapshot_Empty(t *testing.T) {
	_, err := DecodeSnapshot(nil)
	assert.ErrorIs(t, err, domain.ErrReversalFailed)

	_, err = DecodeSnapshot(json.RawMessage(`not json`))
	assert.ErrorIs(t, err, domain.ErrReversalFailed)
}

func TestDecodeSnapshot_RejectsNestedValues(t *testing.T) {
	_, err := DecodeSnapshot(json.RawMessage(`{"title": {"nested": true}}`))
	assert.ErrorIs(t, err, domain.ErrReversalFailed)

	_, err = DecodeSnapshot(json.RawMessage(`{"title": ["a", "b"]}`))
	assert.ErrorIs(t, err, domain.ErrReversalFailed)
}

func TestDecodeSnapshot_NumbersKeptAsText(t *testing.T) {
	decoded, err := DecodeSnapshot(json.RawMessage(`{"description": 10.50}`))
	require.NoError(t, err)
	assert.Equal(t, "10.50", decoded["description"], "numeric text preserved verbatim")
}

func TestSnapshotColumns_RejectsUnknownColumn(t *testing.T) {
	_, err := snapshotColumns(taskColumnSet, map[string]any{
		"title":                  "ok",
		"title; DROP TABLE junk": "boom",
	})
	require.ErrorIs(t, err, domain.ErrReversalFailed)
	assert.Contains(t, err.Error(), "unexpected column")
}

func TestBuildSnapshotInsert_ParameterizesValues(t *testing.T) {
	snapshot := map[string]any{
		"id":     "some-id",
		"title":  "a'); DROP TABLE tasks; --",
		"status": "TODO",
	}

	query, args, err := buildSnapshotInsert("tasks", taskColumnSet, snapshot, taskColumns)
	require.NoError(t, err)

	// Deterministic column order, hostile value only in the args.
	assert.Equal(t, "INSERT INTO tasks (id,status,title) VALUES ($1,$2,$3) RETURNING "+
		"id, title, description, status, due_date, creator_id, last_modifier_id, created_at, updated_at", query)
	assert.Equal(t, []any{"some-id", "TODO", "a'); DROP TABLE tasks; --"}, args)
	assert.NotContains(t, query, "DROP TABLE")
}

func TestBuildSnapshotInsert_EmptySnapshot(t *testing.T) {
	_, _, err := buildSnapshotInsert("tasks", taskColumnSet, map[string]any{}, taskColumns)
	assert.ErrorIs(t, err, domain.ErrReversalFailed)
}

func TestBuildSnapshotUpdate_SkipsPrimaryKey(t *testing.T) {
	snapshot := map[string]any{
		"id":     "row-id",
		"title":  "old title",
		"status": "DOING",
	}

	query, args, err := buildSnapshotUpdate("tasks", taskColumnSet, snapshot, "row-id", taskColumns)
	require.NoError(t, err)

	assert.Equal(t, "UPDATE tasks SET status = $1, title = $2 WHERE id = $3 RETURNING "+
		"id, title, description, status, due_date, creator_id, last_modifier_id, created_at, updated_at", query)
	assert.Equal(t, []any{"DOING", "old title", "row-id"}, args)
}

func TestBuildSnapshotUpdate_OnlyPrimaryKey(t *testing.T) {
	_, _, err := buildSnapshotUpdate("tasks", taskColumnSet, map[string]any{"id": "row-id"}, "row-id", taskColumns)
	assert.ErrorIs(t, err, domain.ErrReversalFailed)
}
