// Package scheduler keeps scheduler records and runs the ones due on a date.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cuongbtq/onmydesk/internal/dateutil"
	"github.com/cuongbtq/onmydesk/internal/domain"
	"github.com/cuongbtq/onmydesk/internal/report"
)

// defaultConcurrency bounds how many due schedulers run at once
const defaultConcurrency = 4

// Store persists schedulers
type Store interface {
	CreateScheduler(ctx context.Context, sch *domain.Scheduler) error
	GetScheduler(ctx context.Context, id string) (*domain.Scheduler, error)
	ListSchedulers(ctx context.Context, filter domain.SchedulerFilter) ([]domain.Scheduler, error)
	DeleteScheduler(ctx context.Context, id string) error
}

// ReportRunner creates and processes report records
type ReportRunner interface {
	Create(ctx context.Context, name string, params map[string]any, owner string) (*domain.Report, error)
	Process(ctx context.Context, rec *domain.Report) error
}

// Config holds the dependencies of a Service
type Config struct {
	Logger      *slog.Logger
	Store       Store
	Runner      ReportRunner
	Registry    *report.Registry
	Concurrency int
}

// Service manages schedulers
type Service struct {
	logger      *slog.Logger
	store       Store
	runner      ReportRunner
	registry    *report.Registry
	concurrency int
}

// NewService creates a new scheduler Service
func NewService(cfg *Config) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		logger:      cfg.Logger,
		store:       cfg.Store,
		runner:      cfg.Runner,
		registry:    cfg.Registry,
		concurrency: concurrency,
	}
}

// Create stores a scheduler. Params keep their date expressions; they are
// resolved against the run date every time the scheduler fires.
func (s *Service) Create(ctx context.Context, name, periodicity string, params map[string]any, owner string) (*domain.Scheduler, error) {
	if err := domain.ValidatePeriodicity(periodicity); err != nil {
		return nil, err
	}
	if _, err := s.registry.Validate(name, params); err != nil {
		return nil, err
	}

	sch := &domain.Scheduler{
		Report:      name,
		Periodicity: periodicity,
	}
	if err := sch.SetParams(params); err != nil {
		return nil, err
	}
	if owner != "" {
		sch.CreatedBy.String, sch.CreatedBy.Valid = owner, true
	}

	if err := s.store.CreateScheduler(ctx, sch); err != nil {
		return nil, err
	}

	s.logger.Info("Scheduler created",
		slog.String("scheduler_id", sch.ID),
		slog.String("report", sch.Report),
		slog.String("periodicity", sch.Periodicity),
	)
	return sch, nil
}

// Get returns a scheduler by id
func (s *Service) Get(ctx context.Context, id string) (*domain.Scheduler, error) {
	return s.store.GetScheduler(ctx, id)
}

// List returns schedulers matching filter, newest first
func (s *Service) List(ctx context.Context, filter domain.SchedulerFilter) ([]domain.Scheduler, error) {
	return s.store.ListSchedulers(ctx, filter)
}

// Delete removes a scheduler
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteScheduler(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Scheduler deleted", slog.String("scheduler_id", id))
	return nil
}

// Label renders a scheduler with its definition title
func (s *Service) Label(sch *domain.Scheduler) string {
	return sch.Label(s.registry.Title(sch.Report))
}

// RunResult is the outcome of one due scheduler
type RunResult struct {
	SchedulerID string `json:"scheduler_id"`
	Report      string `json:"report"`
	ReportID    string `json:"report_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// RunSummary is what RunDue did on a date
type RunSummary struct {
	Date    time.Time   `json:"date"`
	Results []RunResult `json:"results"`
}

// Failed counts the schedulers that did not produce a processed record
func (s *RunSummary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Error != "" {
			n++
		}
	}
	return n
}

// RunDue creates and processes a record for every scheduler due on date.
// A failing scheduler is recorded in the summary and does not stop the others.
func (s *Service) RunDue(ctx context.Context, date time.Time) (*RunSummary, error) {
	schedulers, err := s.store.ListSchedulers(ctx, domain.SchedulerFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list schedulers: %w", err)
	}

	due := make([]domain.Scheduler, 0, len(schedulers))
	for _, sch := range schedulers {
		if sch.IsDue(date) {
			due = append(due, sch)
		}
	}

	s.logger.Info("Running due schedulers",
		slog.String("date", date.Format(dateutil.DateLayout)),
		slog.Int("due", len(due)),
		slog.Int("total", len(schedulers)),
	)

	summary := &RunSummary{
		Date:    date,
		Results: make([]RunResult, len(due)),
	}

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for i := range due {
		sch := due[i]
		g.Go(func() error {
			summary.Results[i] = s.runOne(ctx, &sch, date)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	s.logger.Info("Due schedulers finished",
		slog.String("date", date.Format(dateutil.DateLayout)),
		slog.Int("due", len(due)),
		slog.Int("failed", summary.Failed()),
	)
	return summary, nil
}

func (s *Service) runOne(ctx context.Context, sch *domain.Scheduler, date time.Time) RunResult {
	result := RunResult{SchedulerID: sch.ID, Report: sch.Report}

	rec, err := s.createRecord(ctx, sch, date)
	if err != nil {
		s.logger.Error("Failed to create scheduled report",
			slog.String("scheduler_id", sch.ID),
			slog.String("report", sch.Report),
			slog.String("error", err.Error()),
		)
		result.Error = err.Error()
		return result
	}
	result.ReportID = rec.ID

	if err := s.runner.Process(ctx, rec); err != nil {
		result.Error = err.Error()
	}
	return result
}

func (s *Service) createRecord(ctx context.Context, sch *domain.Scheduler, date time.Time) (*domain.Report, error) {
	params, err := sch.GetParams()
	if err != nil {
		return nil, err
	}
	// field defaults are relative to the run date, not the wall clock
	validated, err := s.registry.ValidateAt(sch.Report, params, date)
	if err != nil {
		return nil, err
	}
	resolved, err := dateutil.ResolveParams(validated, date)
	if err != nil {
		return nil, err
	}
	return s.runner.Create(ctx, sch.Report, resolved, sch.CreatedBy.String)
}
