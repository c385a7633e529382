package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/onmydesk/internal/auth"
	"github.com/cuongbtq/onmydesk/internal/domain"
	"github.com/cuongbtq/onmydesk/internal/report"
	"github.com/cuongbtq/onmydesk/internal/scheduler"
)

// UserContextKey is the gin context key holding the authenticated user
const UserContextKey = "user"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ReportService is what the report handlers need from the report records service
type ReportService interface {
	Create(ctx context.Context, name string, params map[string]any, owner string) (*domain.Report, error)
	Get(ctx context.Context, id string) (*domain.Report, error)
	List(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error)
	Delete(ctx context.Context, id string) error
	Enqueue(ctx context.Context, id string) error
	Label(rec *domain.Report) string
}

// SchedulerService is what the scheduler handlers need from the scheduler service
type SchedulerService interface {
	Create(ctx context.Context, name, periodicity string, params map[string]any, owner string) (*domain.Scheduler, error)
	Get(ctx context.Context, id string) (*domain.Scheduler, error)
	List(ctx context.Context, filter domain.SchedulerFilter) ([]domain.Scheduler, error)
	Delete(ctx context.Context, id string) error
	Label(sch *domain.Scheduler) string
	RunDue(ctx context.Context, date time.Time) (*scheduler.RunSummary, error)
}

// Resolver turns a stored output location into a download URL
type Resolver interface {
	Resolve(ctx context.Context, location string) (string, error)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger     *slog.Logger
	Reports    ReportService
	Schedulers SchedulerService
	Registry   *report.Registry
	Resolver   Resolver
	Auth       *auth.Issuer

	// HealthCheck reports whether the database is reachable; optional
	HealthCheck func(ctx context.Context) error
}

// ReportHandler handles report-related HTTP requests
type ReportHandler struct {
	logger   *slog.Logger
	reports  ReportService
	registry *report.Registry
	resolver Resolver
}

// NewReportHandler creates a new ReportHandler instance
func NewReportHandler(deps *Dependencies) *ReportHandler {
	return &ReportHandler{
		logger:   deps.Logger,
		reports:  deps.Reports,
		registry: deps.Registry,
		resolver: deps.Resolver,
	}
}

// SchedulerHandler handles scheduler-related HTTP requests
type SchedulerHandler struct {
	logger     *slog.Logger
	schedulers SchedulerService
}

// NewSchedulerHandler creates a new SchedulerHandler instance
func NewSchedulerHandler(deps *Dependencies) *SchedulerHandler {
	return &SchedulerHandler{
		logger:     deps.Logger,
		schedulers: deps.Schedulers,
	}
}

// currentUser returns the authenticated user set by the auth middleware
func currentUser(c *gin.Context) string {
	return c.GetString(UserContextKey)
}

func pageSize(requested int) int {
	if requested <= 0 {
		return defaultPageSize
	}
	if requested > maxPageSize {
		return maxPageSize
	}
	return requested
}

// errorStatus maps service errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrReportNotFound),
		errors.Is(err, domain.ErrSchedulerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrReportAlreadyClaimed),
		errors.Is(err, domain.ErrReportNotTerminal):
		return http.StatusConflict
	case errors.Is(err, report.ErrUnknownReport),
		errors.Is(err, report.ErrInvalidParam),
		errors.Is(err, domain.ErrInvalidParams),
		errors.Is(err, domain.ErrInvalidPeriodicity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes it with the matching status. Internal
// errors are not exposed to clients.
func respondError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	logger.Warn(msg, slog.String("error", err.Error()))
	c.JSON(status, gin.H{"error": err.Error()})
}
