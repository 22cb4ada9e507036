package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/taskledger/taskledger/internal/domain"
)

// TaskSnapshot captures the full row state of a task as a column->value
// mapping. Marshalled to JSONB it becomes the reversible payload of a
// history record.
func TaskSnapshot(task *domain.Task) map[string]any {
	snap := map[string]any{
		"id":               task.ID,
		"title":            task.Title,
		"description":      task.Description,
		"status":           task.Status,
		"creator_id":       task.CreatorID,
		"last_modifier_id": task.LastModifierID,
		"created_at":       task.CreatedAt,
		"updated_at":       task.UpdatedAt,
	}
	if task.DueDate != nil {
		snap["due_date"] = *task.DueDate
	} else {
		snap["due_date"] = nil
	}
	return snap
}

// EncodeSnapshot serializes a snapshot for storage.
func EncodeSnapshot(snapshot map[string]any) (json.RawMessage, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored snapshot back into a column->value
// mapping suitable for parameter binding. Scalar JSON values become
// their text form (numbers included, to avoid float rounding) and are
// cast by PostgreSQL against the target column type; nested objects or
// arrays mark the snapshot as malformed.
func DecodeSnapshot(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", domain.ErrReversalFailed)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var parsed map[string]any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %w", domain.ErrReversalFailed, err)
	}

	snapshot := make(map[string]any, len(parsed))
	for col, val := range parsed {
		switch v := val.(type) {
		case nil:
			snapshot[col] = nil
		case string:
			snapshot[col] = v
		case json.Number:
			snapshot[col] = v.String()
		case bool:
			snapshot[col] = v
		default:
			return nil, fmt.Errorf("%w: column %q holds a non-scalar value", domain.ErrReversalFailed, col)
		}
	}
	return snapshot, nil
}

// snapshotColumns returns the snapshot keys in deterministic order,
// verifying each against the identifier allow-list. This is the only
// path by which snapshot data reaches SQL text; values never do.
func snapshotColumns(allowed map[string]struct{}, snapshot map[string]any) ([]string, error) {
	cols := make([]string, 0, len(snapshot))
	for col := range snapshot {
		if _, ok := allowed[col]; !ok {
			return nil, fmt.Errorf("%w: unexpected column %q in snapshot", domain.ErrReversalFailed, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

// buildSnapshotInsert builds a parameterized INSERT over whatever
// columns the snapshot carries.
func buildSnapshotInsert(
	table string,
	allowed map[string]struct{},
	snapshot map[string]any,
	returning []string,
) (string, []any, error) {
	cols, err := snapshotColumns(allowed, snapshot)
	if err != nil {
		return "", nil, err
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("%w: snapshot has no columns", domain.ErrReversalFailed)
	}

	vals := make([]any, len(cols))
	for i, col := range cols {
		vals[i] = snapshot[col]
	}

	query, args, err := psql.
		Insert(table).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING " + strings.Join(returning, ", ")).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: build snapshot insert: %w", domain.ErrReversalFailed, err)
	}
	return query, args, nil
}

// buildSnapshotUpdate builds a parameterized UPDATE setting every
// snapshot column back to its recorded value. The primary key is used
// only in the WHERE clause.
func buildSnapshotUpdate(
	table string,
	allowed map[string]struct{},
	snapshot map[string]any,
	targetID string,
	returning []string,
) (string, []any, error) {
	cols, err := snapshotColumns(allowed, snapshot)
	if err != nil {
		return "", nil, err
	}

	qb := psql.Update(table)
	settable := 0
	for _, col := range cols {
		if col == "id" {
			continue
		}
		qb = qb.Set(col, snapshot[col])
		settable++
	}
	if settable == 0 {
		return "", nil, fmt.Errorf("%w: snapshot has no settable columns", domain.ErrReversalFailed)
	}

	query, args, err := qb.
		Where("id = ?", targetID).
		Suffix("RETURNING " + strings.Join(returning, ", ")).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: build snapshot update: %w", domain.ErrReversalFailed, err)
	}
	return query, args, nil
}
