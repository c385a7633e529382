package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/onmydesk/internal/domain"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Debug("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Debug("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case msg := <-w.jobsChan:
			err := w.processJob(ctx, msg)
			w.acknowledge(workerName, msg, err)
		}
	}
}

// acknowledge ACKs processed and terminally failed messages and NACKs
// retryable failures back onto the queue
func (w *Worker) acknowledge(workerName string, msg *ReportMessage, err error) {
	if err != nil && shouldRequeue(err) {
		if nackErr := msg.Delivery.Nack(false, true); nackErr != nil {
			w.logger.Error("Failed to NACK message",
				slog.String("worker_name", workerName),
				slog.String("report_id", msg.ReportID),
				slog.String("error", nackErr.Error()),
			)
			return
		}
		w.logger.Info("Message requeued",
			slog.String("worker_name", workerName),
			slog.String("report_id", msg.ReportID),
		)
		return
	}

	if ackErr := msg.Delivery.Ack(false); ackErr != nil {
		w.logger.Error("Failed to ACK message",
			slog.String("worker_name", workerName),
			slog.String("report_id", msg.ReportID),
			slog.String("error", ackErr.Error()),
		)
	}
}

// shouldRequeue reports whether a failed message should go back to the queue.
// Only transient errors do; failed reports are already stored in error.
func shouldRequeue(err error) bool {
	if errors.Is(err, domain.ErrReportAlreadyClaimed) {
		return false
	}
	var retryableErr *domain.RetryableError
	return errors.As(err, &retryableErr)
}
