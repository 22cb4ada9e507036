package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskledger/taskledger/internal/domain"
)

// historyColumns is the shared list of columns for history queries.
var historyColumns = []string{
	"id", "target_row_id", "executed_operation", "operation_executed_at",
	"data_after_executed_operation", "from_undo", "user_id", "used",
}

// HistoryRepository handles database operations for history records.
// The mutation executor is the only writer of new rows; the undo engine
// is the only component flipping the used flag.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func scanHistoryRecord(row pgx.Row) (*domain.HistoryRecord, error) {
	var rec domain.HistoryRecord
	err := row.Scan(
		&rec.ID,
		&rec.TargetRowID,
		&rec.Operation,
		&rec.ExecutedAt,
		&rec.Snapshot,
		&rec.FromUndo,
		&rec.UserID,
		&rec.Used,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create appends a history record within the mutation's transaction.
func (r *HistoryRepository) Create(ctx context.Context, tx pgx.Tx, rec *domain.HistoryRecord) error {
	query, args, err := psql.
		Insert("task_history").
		Columns("target_row_id", "executed_operation", "data_after_executed_operation", "from_undo", "user_id").
		Values(rec.TargetRowID, rec.Operation, []byte(rec.Snapshot), rec.FromUndo, rec.UserID).
		Suffix("RETURNING id, operation_executed_at, used").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for history record: %w", err)
	}

	err = tx.QueryRow(ctx, query, args...).Scan(&rec.ID, &rec.ExecutedAt, &rec.Used)
	if err != nil {
		return fmt.Errorf("create history record: %w", err)
	}

	return nil
}

// LatestUnused finds the most recent unconsumed history record for a
// user. Ties on operation_executed_at break by id descending. Records
// produced by a prior undo are never candidates.
func (r *HistoryRepository) LatestUnused(ctx context.Context, userID string) (*domain.HistoryRecord, error) {
	query, args, err := psql.
		Select(historyColumns...).
		From("task_history").
		Where(sq.Eq{"user_id": userID, "used": false, "from_undo": false}).
		OrderBy("operation_executed_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build LatestUnused query: %w", err)
	}

	rec, err := scanHistoryRecord(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNothingToUndo
		}
		return nil, fmt.Errorf("query latest unused history record: %w", err)
	}
	return rec, nil
}

// LockUnused re-reads a candidate record by id with a row lock, still
// requiring used = false. A concurrent undo that consumed the record
// first makes this return ErrNothingToUndo, which guarantees at most
// one reversal per record.
func (r *HistoryRepository) LockUnused(ctx context.Context, tx pgx.Tx, recordID int64) (*domain.HistoryRecord, error) {
	query, args, err := psql.
		Select(historyColumns...).
		From("task_history").
		Where(sq.Eq{"id": recordID, "used": false}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build LockUnused query for record %d: %w", recordID, err)
	}

	rec, err := scanHistoryRecord(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNothingToUndo
		}
		return nil, fmt.Errorf("lock history record %d: %w", recordID, err)
	}
	return rec, nil
}

// MarkUsed flips the consumption flag on a record within the undo
// transaction.
func (r *HistoryRepository) MarkUsed(ctx context.Context, tx pgx.Tx, recordID int64) error {
	query, args, err := psql.
		Update("task_history").
		Set("used", true).
		Where(sq.Eq{"id": recordID, "used": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build MarkUsed query for record %d: %w", recordID, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark history record used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNothingToUndo
	}

	return nil
}

// ListByUser retrieves a page of a user's history, newest first.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.HistoryRecord, error) {
	query, args, err := psql.
		Select(historyColumns...).
		From("task_history").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("operation_executed_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByUser query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history records: %w", err)
	}
	defer rows.Close()

	var records []*domain.HistoryRecord
	for rows.Next() {
		rec, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}

// CountByUser returns the total number of history records for a user.
func (r *HistoryRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("task_history").
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build CountByUser query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count history records: %w", err)
	}
	return total, nil
}
