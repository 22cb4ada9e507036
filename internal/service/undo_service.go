package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskledger/taskledger/internal/domain"
	"github.com/taskledger/taskledger/internal/metrics"
	"github.com/taskledger/taskledger/internal/repository"
)

// UndoService reverses the most recent unconsumed operation performed
// by a user. Selection, reversal, and the consumption-flag flip share
// one transaction, so a record is reversed at most once even under
// concurrent calls.
type UndoService struct {
	pool        *pgxpool.Pool
	taskRepo    *repository.TaskRepository
	historyRepo *repository.HistoryRepository
}

// NewUndoService creates a new UndoService.
func NewUndoService(
	pool *pgxpool.Pool,
	taskRepo *repository.TaskRepository,
	historyRepo *repository.HistoryRepository,
) *UndoService {
	return &UndoService{
		pool:        pool,
		taskRepo:    taskRepo,
		historyRepo: historyRepo,
	}
}

// Undo reverses the user's latest unconsumed history record and marks
// it consumed. Returns the resulting task state, or nil when the
// reversal was a deletion (undo of a CREATE). The consumed record is
// returned alongside so callers can report what was undone.
func (s *UndoService) Undo(ctx context.Context, userID string) (*domain.Task, *domain.HistoryRecord, error) {
	// Pick the candidate outside the lock so two concurrent calls race
	// for the same record instead of silently consuming two.
	candidate, err := s.historyRepo.LatestUnused(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNothingToUndo) {
			metrics.UndoTotal.WithLabelValues(metrics.UndoOutcomeNothing).Inc()
		}
		return nil, nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	rec, err := s.historyRepo.LockUnused(ctx, tx, candidate.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNothingToUndo) {
			metrics.UndoTotal.WithLabelValues(metrics.UndoOutcomeNothing).Inc()
		}
		return nil, nil, err
	}

	task, err := s.reverse(ctx, tx, rec)
	if err != nil {
		metrics.UndoTotal.WithLabelValues(metrics.UndoOutcomeFailed).Inc()
		return nil, nil, err
	}

	if err := s.historyRepo.MarkUsed(ctx, tx, rec.ID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	rec.Used = true
	metrics.UndoTotal.WithLabelValues(metrics.UndoOutcomeReversed).Inc()
	slog.Info("operation undone",
		"history_id", rec.ID,
		"operation", rec.Operation.String(),
		"target_row_id", rec.TargetRowID,
		"user_id", userID,
	)

	return task, rec, nil
}

// reverse applies the inverse of a recorded operation.
func (s *UndoService) reverse(ctx context.Context, tx pgx.Tx, rec *domain.HistoryRecord) (*domain.Task, error) {
	switch rec.Operation {
	case domain.OperationCreate:
		// Inverse of a create is deleting the row; if it is already
		// gone the end state is the same.
		err := s.taskRepo.Delete(ctx, tx, rec.TargetRowID)
		if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrReversalFailed, err)
		}
		return nil, nil

	case domain.OperationDelete:
		snapshot, err := repository.DecodeSnapshot(rec.Snapshot)
		if err != nil {
			return nil, err
		}
		return s.taskRepo.RestoreFromSnapshot(ctx, tx, snapshot)

	case domain.OperationUpdate:
		snapshot, err := repository.DecodeSnapshot(rec.Snapshot)
		if err != nil {
			return nil, err
		}
		return s.taskRepo.RevertToSnapshot(ctx, tx, rec.TargetRowID, snapshot)

	default:
		return nil, fmt.Errorf("%w: unknown operation %d", domain.ErrReversalFailed, rec.Operation)
	}
}
