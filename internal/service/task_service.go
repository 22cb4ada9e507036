package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskledger/taskledger/internal/domain"
	"github.com/taskledger/taskledger/internal/metrics"
	"github.com/taskledger/taskledger/internal/repository"
)

// TaskService executes task mutations. Every successful mutation
// appends exactly one history record in the same transaction as the
// entity change, so each commit leaves behind the data needed to
// reverse it.
type TaskService struct {
	pool        *pgxpool.Pool
	taskRepo    *repository.TaskRepository
	historyRepo *repository.HistoryRepository
	userRepo    *repository.UserRepository
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	historyRepo *repository.HistoryRepository,
	userRepo *repository.UserRepository,
) *TaskService {
	return &TaskService{
		pool:        pool,
		taskRepo:    taskRepo,
		historyRepo: historyRepo,
		userRepo:    userRepo,
	}
}

// appendHistory records an executed operation with a full row snapshot
// within the mutation's transaction.
func (s *TaskService) appendHistory(
	ctx context.Context,
	tx pgx.Tx,
	op domain.Operation,
	task *domain.Task,
	userID string,
) (*domain.HistoryRecord, error) {
	snapshot, err := repository.EncodeSnapshot(repository.TaskSnapshot(task))
	if err != nil {
		return nil, err
	}

	rec := &domain.HistoryRecord{
		TargetRowID: task.ID,
		Operation:   op,
		Snapshot:    snapshot,
		FromUndo:    false,
		UserID:      userID,
	}
	if err := s.historyRepo.Create(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && err.Error() != "tx is closed" {
		slog.Error("failed to rollback transaction", "error", err)
	}
}

// CreateTaskParams holds the fields for a new task.
type CreateTaskParams struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	DueDate     *time.Time
}

// CreateTask inserts a new task owned by the calling user and records a
// CREATE history entry whose snapshot is the full new row.
func (s *TaskService) CreateTask(ctx context.Context, userID string, params CreateTaskParams) (*domain.Task, error) {
	if params.Title == "" {
		return nil, domain.ErrEmptyTitle
	}
	if params.Status != "" && !params.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.Create(ctx, tx, &domain.Task{
		Title:          params.Title,
		Description:    params.Description,
		Status:         params.Status,
		DueDate:        params.DueDate,
		CreatorID:      userID,
		LastModifierID: userID,
	})
	if err != nil {
		return nil, err
	}

	rec, err := s.appendHistory(ctx, tx, domain.OperationCreate, task, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	metrics.MutationsTotal.WithLabelValues(domain.OperationCreate.String()).Inc()
	slog.Info("task created",
		"task_id", task.ID,
		"user_id", userID,
		"history_id", rec.ID,
	)

	return task, nil
}

// UpdateTask applies a partial update and records an UPDATE history
// entry whose snapshot is the full pre-image row, enabling exact
// reversal. The caller becomes the task's last modifier.
func (s *TaskService) UpdateTask(
	ctx context.Context,
	taskID string,
	userID string,
	upd repository.TaskUpdate,
) (*domain.Task, error) {
	if upd.Status != nil && !upd.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	// Pre-image first, then the write: the snapshot must describe the
	// row as it was before this mutation.
	rec, err := s.appendHistory(ctx, tx, domain.OperationUpdate, task, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.taskRepo.ApplyUpdate(ctx, tx, taskID, upd, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	metrics.MutationsTotal.WithLabelValues(domain.OperationUpdate.String()).Inc()
	slog.Info("task updated",
		"task_id", taskID,
		"user_id", userID,
		"history_id", rec.ID,
	)

	return updated, nil
}

// DeleteTask removes a task after verifying the caller created it, and
// records a DELETE history entry capturing the row before deletion.
// The history insert happens before the delete so the snapshot is taken
// from a live row; both share the transaction's commit.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string, userID string) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	task, err := s.taskRepo.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return "", err
	}

	if !task.IsCreatedBy(userID) {
		return "", fmt.Errorf("%w: user %s did not create task %s", domain.ErrNotTaskCreator, userID, taskID)
	}

	rec, err := s.appendHistory(ctx, tx, domain.OperationDelete, task, userID)
	if err != nil {
		return "", err
	}

	if err := s.taskRepo.Delete(ctx, tx, taskID); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	metrics.MutationsTotal.WithLabelValues(domain.OperationDelete.String()).Inc()
	slog.Info("task deleted",
		"task_id", taskID,
		"user_id", userID,
		"history_id", rec.ID,
	)

	return taskID, nil
}
