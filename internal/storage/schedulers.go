package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cuongbtq/onmydesk/internal/domain"
)

const schedulerColumns = `id, report, periodicity, params, created_by, insert_date, update_date`

// CreateScheduler inserts a scheduler and assigns its identity
func (s *Storage) CreateScheduler(ctx context.Context, sch *domain.Scheduler) error {
	if sch.ID == "" {
		sch.ID = uuid.New().String()
	}

	query := `
		INSERT INTO schedulers (id, report, periodicity, params, created_by, insert_date, update_date)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING insert_date, update_date
	`

	err := s.db.QueryRowContext(ctx, query, sch.ID, sch.Report, sch.Periodicity, sch.Params, sch.CreatedBy).
		Scan(&sch.InsertDate, &sch.UpdateDate)
	if err != nil {
		sch.ID = ""
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	return nil
}

// GetScheduler retrieves a scheduler by its ID
func (s *Storage) GetScheduler(ctx context.Context, id string) (*domain.Scheduler, error) {
	query := `SELECT ` + schedulerColumns + ` FROM schedulers WHERE id = $1`

	var sch domain.Scheduler
	if err := s.db.GetContext(ctx, &sch, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSchedulerNotFound
		}
		return nil, fmt.Errorf("failed to get scheduler: %w", err)
	}
	return &sch, nil
}

// ListSchedulers returns schedulers newest first. A zero page size lists all.
func (s *Storage) ListSchedulers(ctx context.Context, filter domain.SchedulerFilter) ([]domain.Scheduler, error) {
	query := `SELECT ` + schedulerColumns + ` FROM schedulers WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Report != "" {
		query += fmt.Sprintf(" AND report = $%d", argIdx)
		args = append(args, filter.Report)
		argIdx++
	}

	if filter.Periodicity != "" {
		query += fmt.Sprintf(" AND periodicity = $%d", argIdx)
		args = append(args, filter.Periodicity)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (insert_date, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.InsertDate, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY insert_date DESC, id DESC"

	if filter.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.PageSize+1)
	}

	var schedulers []domain.Scheduler
	if err := s.db.SelectContext(ctx, &schedulers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list schedulers: %w", err)
	}
	return schedulers, nil
}

// DeleteScheduler removes a scheduler
func (s *Storage) DeleteScheduler(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM schedulers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scheduler: %w", err)
	}
	return expectRow(result, domain.ErrSchedulerNotFound)
}
