package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cuongbtq/onmydesk/internal/api/dto"
	"github.com/cuongbtq/onmydesk/internal/dateutil"
	"github.com/cuongbtq/onmydesk/internal/domain"
)

// CreateScheduler handles POST /api/v1/schedulers
func (h *SchedulerHandler) CreateScheduler(c *gin.Context) {
	var req dto.CreateSchedulerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	sch, err := h.schedulers.Create(c.Request.Context(), req.Report, req.Periodicity, req.Params, currentUser(c))
	if err != nil {
		respondError(c, h.logger, "Failed to create scheduler", err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSchedulerDTO(sch, h.schedulers.Label(sch)))
}

// GetScheduler handles GET /api/v1/schedulers/:id
func (h *SchedulerHandler) GetScheduler(c *gin.Context) {
	id, ok := h.schedulerID(c)
	if !ok {
		return
	}

	sch, err := h.schedulers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "Failed to get scheduler", err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSchedulerDTO(sch, h.schedulers.Label(sch)))
}

// ListSchedulers handles GET /api/v1/schedulers
func (h *SchedulerHandler) ListSchedulers(c *gin.Context) {
	var req dto.ListSchedulersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
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
	schedulers, err := h.schedulers.List(c.Request.Context(), domain.SchedulerFilter{
		Report:      req.Report,
		Periodicity: req.Periodicity,
		PageSize:    size,
		Cursor:      cursor,
	})
	if err != nil {
		respondError(c, h.logger, "Failed to list schedulers", err)
		return
	}

	hasMore := len(schedulers) > size
	if hasMore {
		schedulers = schedulers[:size]
	}

	resp := dto.ListSchedulersResponse{Schedulers: make([]dto.SchedulerDTO, len(schedulers))}
	for i := range schedulers {
		resp.Schedulers[i] = dto.NewSchedulerDTO(&schedulers[i], h.schedulers.Label(&schedulers[i]))
	}
	if hasMore {
		last := schedulers[len(schedulers)-1]
		resp.NextCursor = EncodeCursor(last.InsertDate, last.ID)
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteScheduler handles DELETE /api/v1/schedulers/:id
func (h *SchedulerHandler) DeleteScheduler(c *gin.Context) {
	id, ok := h.schedulerID(c)
	if !ok {
		return
	}

	if err := h.schedulers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, "Failed to delete scheduler", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RunSchedulers handles POST /api/v1/schedulers/run?date=YYYY-MM-DD
// Creates and processes a record for every scheduler due on date (today by default)
func (h *SchedulerHandler) RunSchedulers(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateutil.DateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "date must be YYYY-MM-DD",
			})
			return
		}
		date = parsed
	}

	summary, err := h.schedulers.RunDue(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, "Failed to run schedulers", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":    date.Format(dateutil.DateLayout),
		"due":     len(summary.Results),
		"failed":  summary.Failed(),
		"results": summary.Results,
	})
}

// schedulerID reads and validates the :id path parameter
func (h *SchedulerHandler) schedulerID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		h.logger.Error("Invalid scheduler id format", slog.String("id", id), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a valid UUID",
		})
		return "", false
	}
	return id, true
}
