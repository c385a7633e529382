// Package service runs report records: it creates them, processes them
// through the registered definitions and keeps their status in the store.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cuongbtq/onmydesk/internal/domain"
	"github.com/cuongbtq/onmydesk/internal/filehandler"
	"github.com/cuongbtq/onmydesk/internal/report"
)

// processTimePlaces is the precision process_time is stored with
const processTimePlaces = 4

// ReportStore persists report records
type ReportStore interface {
	CreateReport(ctx context.Context, r *domain.Report) error
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	ListReports(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error)
	UpdateReportStatus(ctx context.Context, id, status string) error
	ClaimReport(ctx context.Context, id string) (*domain.Report, error)
	CompleteReport(ctx context.Context, r *domain.Report) error
	FailReport(ctx context.Context, id, errorMsg string) error
	DeleteReport(ctx context.Context, id string) error
}

// Publisher sends queue messages
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Message is the queue payload asking a worker to process a record
type Message struct {
	ReportID string `json:"report_id"`
}

// Config holds the dependencies of a ReportService
type Config struct {
	Logger      *slog.Logger
	Store       ReportStore
	Registry    *report.Registry
	Env         *report.Env
	FileHandler filehandler.Handler
	Publisher   Publisher
}

// ReportService manages report records
type ReportService struct {
	logger      *slog.Logger
	store       ReportStore
	registry    *report.Registry
	env         *report.Env
	fileHandler filehandler.Handler
	publisher   Publisher
	now         func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(cfg *Config) *ReportService {
	fileHandler := cfg.FileHandler
	if fileHandler == nil {
		fileHandler = filehandler.Identity
	}
	env := cfg.Env
	if env == nil {
		env = &report.Env{}
	}
	return &ReportService{
		logger:      cfg.Logger,
		store:       cfg.Store,
		registry:    cfg.Registry,
		env:         env,
		fileHandler: fileHandler,
		publisher:   cfg.Publisher,
		now:         time.Now,
	}
}

// Registry returns the definitions the service processes records with
func (s *ReportService) Registry() *report.Registry {
	return s.registry
}

// Create validates params against the named definition and stores a pending record
func (s *ReportService) Create(ctx context.Context, name string, params map[string]any, owner string) (*domain.Report, error) {
	validated, err := s.registry.Validate(name, params)
	if err != nil {
		return nil, err
	}

	rec := domain.NewReport(name)
	if err := rec.SetParams(validated); err != nil {
		return nil, err
	}
	if owner != "" {
		rec.CreatedBy.String, rec.CreatedBy.Valid = owner, true
	}

	if err := s.store.CreateReport(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("Report created",
		slog.String("report_id", rec.ID),
		slog.String("report", rec.Report),
		slog.String("created_by", owner),
	)
	return rec, nil
}

// Process runs a saved record with its stored params. The record ends up
// processed, or in error with the returned error as its message.
func (s *ReportService) Process(ctx context.Context, rec *domain.Report) error {
	if !rec.IsSaved() {
		return domain.ErrReportNotSaved
	}

	if err := s.store.UpdateReportStatus(ctx, rec.ID, domain.StatusProcessing); err != nil {
		return fmt.Errorf("failed to mark report as processing: %w", err)
	}
	rec.Status = domain.StatusProcessing

	return s.run(ctx, rec)
}

// ProcessByID claims a pending or failed record and runs it. It returns
// domain.ErrReportAlreadyClaimed when the record is not claimable.
func (s *ReportService) ProcessByID(ctx context.Context, id string) (*domain.Report, error) {
	rec, err := s.store.ClaimReport(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, s.run(ctx, rec)
}

func (s *ReportService) run(ctx context.Context, rec *domain.Report) error {
	s.logger.Info("Processing report",
		slog.String("report_id", rec.ID),
		slog.String("report", rec.Report),
	)

	elapsed, results, err := s.execute(ctx, rec)
	if err != nil {
		s.fail(ctx, rec, err)
		return err
	}

	rec.Status = domain.StatusProcessed
	rec.ProcessTime = decimal.NewNullDecimal(decimal.NewFromFloat(elapsed.Seconds()).Round(processTimePlaces))
	rec.ErrorMessage.String, rec.ErrorMessage.Valid = "", false
	rec.SetResults(results)

	if err := s.store.CompleteReport(context.WithoutCancel(ctx), rec); err != nil {
		err = fmt.Errorf("failed to store report results: %w", err)
		s.fail(ctx, rec, err)
		return err
	}

	s.logger.Info("Report processed",
		slog.String("report_id", rec.ID),
		slog.String("report", rec.Report),
		slog.String("process_time", rec.ProcessTime.Decimal.String()),
		slog.Int("results", len(results)),
	)
	return nil
}

func (s *ReportService) execute(ctx context.Context, rec *domain.Report) (time.Duration, []string, error) {
	params, err := rec.GetParams()
	if err != nil {
		return 0, nil, err
	}

	rep, err := s.registry.Build(s.env, rec.Report, params)
	if err != nil {
		return 0, nil, err
	}

	start := s.now()
	if err := rep.Process(ctx); err != nil {
		return 0, nil, fmt.Errorf("failed to process report %s: %w", rec.Report, err)
	}
	elapsed := s.now().Sub(start)

	results, err := filehandler.HandleAll(ctx, s.fileHandler, rep.OutputFilepaths)
	if err != nil {
		return 0, nil, err
	}
	return elapsed, results, nil
}

func (s *ReportService) fail(ctx context.Context, rec *domain.Report, cause error) {
	rec.Status = domain.StatusError
	rec.ErrorMessage.String, rec.ErrorMessage.Valid = cause.Error(), true

	s.logger.Error("Report processing failed",
		slog.String("report_id", rec.ID),
		slog.String("report", rec.Report),
		slog.String("error", cause.Error()),
	)

	if err := s.store.FailReport(context.WithoutCancel(ctx), rec.ID, cause.Error()); err != nil {
		s.logger.Error("Failed to update report status to error",
			slog.String("report_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Get returns a record by id
func (s *ReportService) Get(ctx context.Context, id string) (*domain.Report, error) {
	return s.store.GetReport(ctx, id)
}

// List returns records matching filter, newest first
func (s *ReportService) List(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	return s.store.ListReports(ctx, filter)
}

// Delete removes a record that is processed or in error
func (s *ReportService) Delete(ctx context.Context, id string) error {
	rec, err := s.store.GetReport(ctx, id)
	if err != nil {
		return err
	}
	if !rec.IsTerminal() {
		return domain.ErrReportNotTerminal
	}
	if err := s.store.DeleteReport(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Report deleted", slog.String("report_id", id))
	return nil
}

// Label renders a record with its definition title: "Title" or "Title #id"
func (s *ReportService) Label(rec *domain.Report) string {
	return rec.Label(s.registry.Title(rec.Report))
}

// Enqueue asks the workers to process a record
func (s *ReportService) Enqueue(ctx context.Context, id string) error {
	if s.publisher == nil {
		return errors.New("no queue publisher configured")
	}

	body, err := json.Marshal(Message{ReportID: id})
	if err != nil {
		return fmt.Errorf("failed to encode queue message: %w", err)
	}
	if err := s.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to enqueue report: %w", err)
	}

	s.logger.Info("Report enqueued", slog.String("report_id", id))
	return nil
}
