package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cuongbtq/onmydesk/internal/domain"
)

const reportColumns = `id, report, status, process_time, params, results, error_message, created_by, insert_date, update_date`

// CreateReport inserts a record and assigns its identity
func (s *Storage) CreateReport(ctx context.Context, r *domain.Report) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Status == "" {
		r.Status = domain.StatusPending
	}

	query := `
		INSERT INTO reports (id, report, status, params, created_by, insert_date, update_date)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING insert_date, update_date
	`

	err := s.db.QueryRowContext(ctx, query, r.ID, r.Report, r.Status, r.Params, r.CreatedBy).
		Scan(&r.InsertDate, &r.UpdateDate)
	if err != nil {
		r.ID = ""
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetReport retrieves a record by its ID
func (s *Storage) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	var r domain.Report
	if err := s.db.GetContext(ctx, &r, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &r, nil
}

// ListReports returns records newest first, fetching one extra row so callers
// can tell whether another page exists
func (s *Storage) ListReports(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Report != "" {
		query += fmt.Sprintf(" AND report = $%d", argIdx)
		args = append(args, filter.Report)
		argIdx++
	}

	if filter.CreatedBy != "" {
		query += fmt.Sprintf(" AND created_by = $%d", argIdx)
		args = append(args, filter.CreatedBy)
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

	var reports []domain.Report
	if err := s.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

// UpdateReportStatus sets the status of a record
func (s *Storage) UpdateReportStatus(ctx context.Context, id, status string) error {
	query := `UPDATE reports SET status = $1, update_date = NOW() WHERE id = $2`

	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}
	if err := expectRow(result, domain.ErrReportNotFound); err != nil {
		return err
	}

	s.logger.Info("Report status updated",
		slog.String("report_id", id),
		slog.String("status", status),
	)
	return nil
}

// ClaimReport moves a pending or failed record to processing using
// optimistic locking, so a record is only processed by one worker at a time
func (s *Storage) ClaimReport(ctx context.Context, id string) (*domain.Report, error) {
	query := `
		UPDATE reports
		SET status = $1,
		    error_message = NULL,
		    update_date = NOW()
		WHERE id = $2
		  AND status IN ($3, $4)
		RETURNING ` + reportColumns

	var r domain.Report
	err := s.db.GetContext(ctx, &r, query, domain.StatusProcessing, id, domain.StatusPending, domain.StatusError)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim report - already claimed or not found",
				slog.String("report_id", id),
			)
			return nil, domain.ErrReportAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim report: %w", err)
	}

	s.logger.Info("Report claimed successfully",
		slog.String("report_id", id),
		slog.String("report", r.Report),
	)
	return &r, nil
}

// CompleteReport stores a successful run: status, process time and results
func (s *Storage) CompleteReport(ctx context.Context, r *domain.Report) error {
	query := `
		UPDATE reports
		SET status = $1,
		    process_time = $2,
		    results = $3,
		    error_message = NULL,
		    update_date = NOW()
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, domain.StatusProcessed, r.ProcessTime, r.Results, r.ID)
	if err != nil {
		return fmt.Errorf("failed to complete report: %w", err)
	}
	if err := expectRow(result, domain.ErrReportNotFound); err != nil {
		return err
	}

	s.logger.Info("Report status updated",
		slog.String("report_id", r.ID),
		slog.String("status", domain.StatusProcessed),
	)
	return nil
}

// FailReport marks a record as errored and keeps the failure message
func (s *Storage) FailReport(ctx context.Context, id, errorMsg string) error {
	query := `
		UPDATE reports
		SET status = $1,
		    error_message = $2,
		    update_date = NOW()
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, domain.StatusError, errorMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark report as error: %w", err)
	}
	if err := expectRow(result, domain.ErrReportNotFound); err != nil {
		return err
	}

	s.logger.Info("Report status updated",
		slog.String("report_id", id),
		slog.String("status", domain.StatusError),
	)
	return nil
}

// DeleteReport removes a record that finished processing
func (s *Storage) DeleteReport(ctx context.Context, id string) error {
	query := `DELETE FROM reports WHERE id = $1 AND status IN ($2, $3)`

	result, err := s.db.ExecContext(ctx, query, id, domain.StatusProcessed, domain.StatusError)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// nothing deleted: tell a missing record from a running one
	if _, err := s.GetReport(ctx, id); err != nil {
		return err
	}
	return domain.ErrReportNotTerminal
}

func expectRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
