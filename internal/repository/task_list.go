package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/taskledger/taskledger/internal/domain"
)

// sortableColumns limits the sort surface to known column names.
var sortableColumns = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"due_date":   {},
	"title":      {},
	"status":     {},
}

// TaskListFilters holds all supported filters for task listing.
type TaskListFilters struct {
	Statuses  []string // Optional: filter by status
	CreatorID *string  // Optional: filter by creator
	Overdue   bool     // Optional: show only overdue tasks
	Sort      []string // Optional: sort fields (with - prefix for DESC)
	Limit     int      // Required: page size
	Offset    int      // Required: page offset
}

func applyTaskFilters(qb sq.SelectBuilder, filters TaskListFilters) sq.SelectBuilder {
	if len(filters.Statuses) > 0 {
		qb = qb.Where(sq.Eq{"status": filters.Statuses})
	}
	if filters.CreatorID != nil {
		qb = qb.Where(sq.Eq{"creator_id": *filters.CreatorID})
	}
	if filters.Overdue {
		qb = qb.Where("due_date < NOW()").Where(sq.NotEq{"status": domain.TaskStatusDone})
	}
	return qb
}

// List retrieves tasks with filters and pagination, plus the unpaginated total.
func (r *TaskRepository) List(ctx context.Context, filters TaskListFilters) ([]*domain.Task, int, error) {
	qb := applyTaskFilters(psql.Select(taskColumns...).From("tasks"), filters)

	if len(filters.Sort) == 0 {
		qb = qb.OrderBy("created_at DESC")
	} else {
		for _, field := range filters.Sort {
			direction := "ASC"
			if strings.HasPrefix(field, "-") {
				field = field[1:]
				direction = "DESC"
			}
			if _, ok := sortableColumns[field]; !ok {
				continue
			}
			qb = qb.OrderBy(field + " " + direction)
		}
	}

	qb = qb.Limit(uint64(filters.Limit)).Offset(uint64(filters.Offset))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build List query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}

	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, 0, err
	}

	countQb := applyTaskFilters(psql.Select("COUNT(*)").From("tasks"), filters)
	countQuery, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	return tasks, total, nil
}
