package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/onmydesk/internal/domain"
)

// processJob claims and runs the report named by msg. The run is detached
// from ctx so a shutdown lets in-flight reports finish within the job timeout.
func (w *Worker) processJob(ctx context.Context, msg *ReportMessage) error {
	w.logger.Info("Processing report",
		slog.String("report_id", msg.ReportID),
		slog.String("worker_id", w.workerID),
		slog.Uint64("delivery_tag", msg.Delivery.DeliveryTag),
	)

	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.jobTimeout)
	defer cancel()

	rec, err := w.reports.ProcessByID(jobCtx, msg.ReportID)
	switch {
	case err == nil:
		w.logger.Info("Report processed",
			slog.String("report_id", rec.ID),
			slog.String("report", rec.Report),
		)
		return nil

	case errors.Is(err, domain.ErrReportAlreadyClaimed):
		// duplicate delivery, or a record another worker owns
		w.logger.Warn("Report already claimed, skipping",
			slog.String("report_id", msg.ReportID),
		)
		return err

	case rec == nil:
		w.logger.Error("Failed to claim report",
			slog.String("report_id", msg.ReportID),
			slog.String("error", err.Error()),
		)
		return domain.NewRetryableError(fmt.Errorf("failed to claim report: %w", err))

	default:
		w.logger.Error("Report execution failed",
			slog.String("report_id", rec.ID),
			slog.String("report", rec.Report),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("report execution failed: %w", err)
	}
}
