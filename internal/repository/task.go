package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskledger/taskledger/internal/domain"
)

// taskColumns is the shared list of columns for task queries. It doubles
// as the identifier allow-list for snapshot reversal statements: a
// snapshot key not present here never reaches generated SQL.
var taskColumns = []string{
	"id", "title", "description", "status", "due_date",
	"creator_id", "last_modifier_id", "created_at", "updated_at",
}

var taskColumnSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(taskColumns))
	for _, c := range taskColumns {
		set[c] = struct{}{}
	}
	return set
}()

// TaskRepository handles database operations for tasks.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

// scanTask scans a single row into a Task struct.
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.DueDate,
		&task.CreatorID,
		&task.LastModifierID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}

// scanTasks scans multiple rows into a slice of Task structs.
func scanTasks(rows pgx.Rows) ([]*domain.Task, error) {
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return tasks, nil
}

// GetByID retrieves a task by ID.
func (r *TaskRepository) GetByID(ctx context.Context, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for task: %w", err)
	}

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

// GetByIDForUpdate retrieves a task by ID with FOR UPDATE lock (within transaction).
func (r *TaskRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, taskID string) (*domain.Task, error) {
	query, args, err := psql.
		Select(taskColumns...).
		From("tasks").
		Where(sq.Eq{"id": taskID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByIDForUpdate query for task %s: %w", taskID, err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// Create inserts a new task within a transaction and returns the full
// row with server-assigned fields populated.
func (r *TaskRepository) Create(ctx context.Context, tx pgx.Tx, task *domain.Task) (*domain.Task, error) {
	if task.Status == "" {
		task.Status = domain.TaskStatusTodo
	}

	query, args, err := psql.
		Insert("tasks").
		Columns("title", "description", "status", "due_date", "creator_id", "last_modifier_id").
		Values(task.Title, task.Description, task.Status, task.DueDate, task.CreatorID, task.LastModifierID).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build Create query for task: %w", err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// TaskUpdate holds the partial field set applied by an update mutation.
// Nil pointers leave the column untouched; ClearDueDate resets due_date
// to NULL.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *domain.TaskStatus
	DueDate      *time.Time
	ClearDueDate bool
}

// ApplyUpdate applies a partial update within a transaction, bumping
// last_modifier_id and updated_at, and returns the resulting row.
func (r *TaskRepository) ApplyUpdate(
	ctx context.Context,
	tx pgx.Tx,
	taskID string,
	upd TaskUpdate,
	modifierID string,
) (*domain.Task, error) {
	qb := psql.Update("tasks").
		Set("last_modifier_id", modifierID).
		Set("updated_at", sq.Expr("NOW()"))

	if upd.Title != nil {
		qb = qb.Set("title", *upd.Title)
	}
	if upd.Description != nil {
		qb = qb.Set("description", *upd.Description)
	}
	if upd.Status != nil {
		qb = qb.Set("status", *upd.Status)
	}
	if upd.ClearDueDate {
		qb = qb.Set("due_date", nil)
	} else if upd.DueDate != nil {
		qb = qb.Set("due_date", *upd.DueDate)
	}

	query, args, err := qb.
		Where(sq.Eq{"id": taskID}).
		Suffix("RETURNING " + strings.Join(taskColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ApplyUpdate query for task %s: %w", taskID, err)
	}

	return scanTask(tx.QueryRow(ctx, query, args...))
}

// Delete removes a task row within a transaction.
func (r *TaskRepository) Delete(ctx context.Context, tx pgx.Tx, taskID string) error {
	query, args, err := psql.
		Delete("tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for task %s: %w", taskID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}

	return nil
}

// RestoreFromSnapshot re-inserts a previously deleted task row from a
// decoded snapshot. Column names are checked against the task column
// allow-list; all values travel as bound parameters.
func (r *TaskRepository) RestoreFromSnapshot(
	ctx context.Context,
	tx pgx.Tx,
	snapshot map[string]any,
) (*domain.Task, error) {
	query, args, err := buildSnapshotInsert("tasks", taskColumnSet, snapshot, taskColumns)
	if err != nil {
		return nil, err
	}

	task, err := scanTask(tx.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrReversalFailed, err)
	}
	return task, nil
}

// RevertToSnapshot sets every snapshot column back to its recorded
// pre-image value on the identified row.
func (r *TaskRepository) RevertToSnapshot(
	ctx context.Context,
	tx pgx.Tx,
	taskID string,
	snapshot map[string]any,
) (*domain.Task, error) {
	query, args, err := buildSnapshotUpdate("tasks", taskColumnSet, snapshot, taskID, taskColumns)
	if err != nil {
		return nil, err
	}

	task, err := scanTask(tx.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrReversalFailed, err)
	}
	return task, nil
}
