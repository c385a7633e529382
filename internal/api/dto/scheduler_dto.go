package dto

import (
	"time"

	"github.com/cuongbtq/onmydesk/internal/domain"
)

// CreateSchedulerRequest represents the request body for creating a scheduler
type CreateSchedulerRequest struct {
	Report      string         `json:"report" binding:"required"`
	Periodicity string         `json:"periodicity" binding:"required"`
	Params      map[string]any `json:"params"`
}

// ListSchedulersRequest represents query parameters for listing schedulers
type ListSchedulersRequest struct {
	Report      string `form:"report"`
	Periodicity string `form:"periodicity"`
	PageSize    int    `form:"page_size"`
	Cursor      string `form:"cursor"`
}

// SchedulerDTO represents a scheduler in API responses
type SchedulerDTO struct {
	ID          string         `json:"id"`
	Report      string         `json:"report"`
	Label       string         `json:"label"`
	Periodicity string         `json:"periodicity"`
	Params      map[string]any `json:"params"`
	CreatedBy   string         `json:"created_by,omitempty"`
	InsertDate  string         `json:"insert_date"`
	UpdateDate  string         `json:"update_date"`
}

// ListSchedulersResponse represents a page of schedulers
type ListSchedulersResponse struct {
	Schedulers []SchedulerDTO `json:"schedulers"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// NewSchedulerDTO converts a scheduler for the API
func NewSchedulerDTO(sch *domain.Scheduler, label string) SchedulerDTO {
	out := SchedulerDTO{
		ID:          sch.ID,
		Report:      sch.Report,
		Label:       label,
		Periodicity: sch.Periodicity,
		CreatedBy:   sch.CreatedBy.String,
		InsertDate:  sch.InsertDate.Format(time.RFC3339),
		UpdateDate:  sch.UpdateDate.Format(time.RFC3339),
	}
	out.Params, _ = sch.GetParams()
	return out
}
