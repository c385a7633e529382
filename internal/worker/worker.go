package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/onmydesk/internal/domain"
)

const (
	defaultConcurrency = 1
	defaultJobTimeout  = 10 * time.Minute
)

// Broker is the queue side of the worker: QoS plus a delivery stream
type Broker interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Processor runs a report record by id
type Processor interface {
	ProcessByID(ctx context.Context, id string) (*domain.Report, error)
}

// ReportMessage is a validated queue message waiting for a worker goroutine
type ReportMessage struct {
	ReportID string
	Delivery amqp.Delivery
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Broker        Broker
	Reports       Processor
	Concurrency   int
	MaxJobs       int
	JobTimeout    time.Duration
	PrefetchCount int
	QueueName     string
	WorkerID      string
}

// Worker consumes report messages and processes them with a pool of goroutines
type Worker struct {
	logger        *slog.Logger
	broker        Broker
	reports       Processor
	concurrency   int
	jobTimeout    time.Duration
	prefetchCount int
	queueName     string
	workerID      string
	jobsChan      chan *ReportMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	maxJobs := cfg.MaxJobs
	if maxJobs <= 0 {
		maxJobs = concurrency
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}
	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = NewWorkerID()
	}

	return &Worker{
		logger:        cfg.Logger,
		broker:        cfg.Broker,
		reports:       cfg.Reports,
		concurrency:   concurrency,
		jobTimeout:    jobTimeout,
		prefetchCount: prefetch,
		queueName:     cfg.QueueName,
		workerID:      workerID,
		jobsChan:      make(chan *ReportMessage, maxJobs),
		stopChan:      make(chan struct{}),
	}
}

// NewWorkerID returns "<hostname>-<short uuid>", used as consumer tag
func NewWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}

// Start subscribes to the queue, spawns the pool and dispatches deliveries
// until ctx is canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)
	return nil
}

// Stop waits for in-flight reports, then returns buffered messages to the queue
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()

	for {
		select {
		case msg := <-w.jobsChan:
			if err := msg.Delivery.Nack(false, true); err != nil {
				w.logger.Error("Failed to requeue buffered message",
					slog.String("report_id", msg.ReportID),
					slog.String("error", err.Error()),
				)
			}
		default:
			w.logger.Info("Worker stopped")
			return
		}
	}
}
