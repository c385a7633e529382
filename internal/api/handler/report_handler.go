package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/onmydesk/internal/api/dto"
	"github.com/cuongbtq/onmydesk/internal/domain"
	"github.com/cuongbtq/onmydesk/internal/filehandler"
)

// ListReportTypes handles GET /api/v1/report-types
// Lists the registered report definitions and the params they accept
func (h *ReportHandler) ListReportTypes(c *gin.Context) {
	defs := h.registry.Definitions()
	types := make([]dto.ReportTypeDTO, len(defs))
	for i, def := range defs {
		types[i] = dto.NewReportTypeDTO(def)
	}
	c.JSON(http.StatusOK, gin.H{"report_types": types})
}

// CreateReport handles POST /api/v1/reports
// Creates a pending report record, optionally enqueueing it for processing
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	ctx := c.Request.Context()
	rec, err := h.reports.Create(ctx, req.Report, req.Params, currentUser(c))
	if err != nil {
		respondError(c, h.logger, "Failed to create report", err)
		return
	}

	if req.Process {
		if err := h.reports.Enqueue(ctx, rec.ID); err != nil {
			// the record exists; it can be enqueued again through /process
			h.logger.Error("Failed to enqueue report",
				slog.String("report_id", rec.ID),
				slog.String("error", err.Error()),
			)
			c.JSON(http.StatusAccepted, gin.H{
				"report":  dto.NewReportDTO(rec, h.reports.Label(rec)),
				"warning": "report created but could not be enqueued",
			})
			return
		}
	}

	c.JSON(http.StatusCreated, dto.NewReportDTO(rec, h.reports.Label(rec)))
}

// GetReport handles GET /api/v1/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := h.reportID(c)
	if !ok {
		return
	}

	rec, err := h.reports.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to get report", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewReportDTO(rec, h.reports.Label(rec)))
}

// ListReports handles GET /api/v1/reports
// Lists report records with optional filtering and keyset pagination
func (h *ReportHandler) ListReports(c *gin.Context) {
	var req dto.ListReportsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Status != "" && !domain.IsValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status",
		})
		return
	}

	cursor, err := DecodeCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	size := pageSize(req.PageSize)
	reports, err := h.reports.List(c.Request.Context(), domain.ReportFilter{
		Status:    req.Status,
		Report:    req.Report,
		CreatedBy: req.CreatedBy,
		PageSize:  size,
		Cursor:    cursor,
	})
	if err != nil {
		respondError(c, h.logger, "Failed to list reports", err)
		return
	}

	hasMore := len(reports) > size
	if hasMore {
		reports = reports[:size]
	}

	resp := dto.ListReportsResponse{Reports: make([]dto.ReportDTO, len(reports))}
	for i := range reports {
		resp.Reports[i] = dto.NewReportDTO(&reports[i], h.reports.Label(&reports[i]))
	}
	if hasMore {
		last := reports[len(reports)-1]
		resp.NextCursor = EncodeCursor(last.InsertDate, last.ID)
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteReport handles DELETE /api/v1/reports/:id
// Only processed or failed records can be deleted
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := h.reportID(c)
	if !ok {
		return
	}

	if err := h.reports.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "Failed to delete report", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ProcessReport handles POST /api/v1/reports/:id/process
// Enqueues a pending or failed record for the workers
func (h *ReportHandler) ProcessReport(c *gin.Context) {
	id, ok := h.reportID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	rec, err := h.reports.Get(ctx, id)
	if err != nil {
		respondError(c, h.logger, "Failed to get report", err)
		return
	}
	if rec.Status != domain.StatusPending && rec.Status != domain.StatusError {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "report is not pending or in error",
			"status": rec.Status,
		})
		return
	}

	if err := h.reports.Enqueue(ctx, id); err != nil {
		respondError(c, h.logger, "Failed to enqueue report", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":     id,
		"status": rec.Status,
	})
}

// DownloadReport handles GET /api/v1/reports/:id/download?index=N
// Serves a local output file, or redirects to a presigned URL for outputs
// stored in a bucket
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	id, ok := h.reportID(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.DefaultQuery("index", "0"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "index must be a non-negative integer",
		})
		return
	}

	ctx := c.Request.Context()
	rec, err := h.reports.Get(ctx, id)
	if err != nil {
		respondError(c, h.logger, "Failed to get report", err)
		return
	}

	results := rec.ResultsAsList()
	if rec.Status != domain.StatusProcessed || index >= len(results) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "output not found for this report",
		})
		return
	}
	location := results[index]

	if strings.HasPrefix(location, filehandler.ObjectScheme) {
		if h.resolver == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "object storage is not configured",
			})
			return
		}
		url, err := h.resolver.Resolve(ctx, location)
		if err != nil {
			respondError(c, h.logger, "Failed to resolve output", err)
			return
		}
		c.Redirect(http.StatusFound, url)
		return
	}

	if _, err := os.Stat(location); err != nil {
		h.logger.Warn("Output file missing",
			slog.String("report_id", id),
			slog.String("path", location),
		)
		c.JSON(http.StatusNotFound, gin.H{
			"error": "output file not found",
		})
		return
	}

	h.logger.Info("Serving report output",
		slog.String("report_id", id),
		slog.String("user", currentUser(c)),
		slog.String("path", location),
	)
	c.FileAttachment(location, filepath.Base(location))
}

// reportID reads and validates the :id path parameter
func (h *ReportHandler) reportID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		h.logger.Error("Invalid report id format", slog.String("id", id), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a valid UUID",
		})
		return "", false
	}
	return id, true
}
