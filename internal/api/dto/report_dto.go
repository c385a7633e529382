package dto

import (
	"time"

	"github.com/cuongbtq/onmydesk/internal/domain"
	"github.com/cuongbtq/onmydesk/internal/report"
)

// CreateReportRequest represents the request body for creating a report record
type CreateReportRequest struct {
	Report  string         `json:"report" binding:"required"`
	Params  map[string]any `json:"params"`
	Process bool           `json:"process"`
}

// ListReportsRequest represents query parameters for listing report records
type ListReportsRequest struct {
	Status    string `form:"status"`
	Report    string `form:"report"`
	CreatedBy string `form:"created_by"`
	PageSize  int    `form:"page_size"`
	Cursor    string `form:"cursor"`
}

// ReportDTO represents a report record in API responses
type ReportDTO struct {
	ID           string         `json:"id"`
	Report       string         `json:"report"`
	Label        string         `json:"label"`
	Status       string         `json:"status"`
	ProcessTime  *string        `json:"process_time"`
	Params       map[string]any `json:"params"`
	Results      []string       `json:"results"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedBy    string         `json:"created_by,omitempty"`
	InsertDate   string         `json:"insert_date"`
	UpdateDate   string         `json:"update_date"`
}

// ListReportsResponse represents a page of report records
type ListReportsResponse struct {
	Reports    []ReportDTO `json:"reports"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// ReportTypeDTO describes a registered report definition
type ReportTypeDTO struct {
	Name   string         `json:"name"`
	Title  string         `json:"title"`
	Fields []report.Field `json:"fields"`
}

// NewReportDTO converts a record for the API
func NewReportDTO(rec *domain.Report, label string) ReportDTO {
	out := ReportDTO{
		ID:           rec.ID,
		Report:       rec.Report,
		Label:        label,
		Status:       rec.Status,
		Results:      rec.ResultsAsList(),
		ErrorMessage: rec.ErrorMessage.String,
		CreatedBy:    rec.CreatedBy.String,
		InsertDate:   rec.InsertDate.Format(time.RFC3339),
		UpdateDate:   rec.UpdateDate.Format(time.RFC3339),
	}
	if rec.ProcessTime.Valid {
		s := rec.ProcessTime.Decimal.StringFixed(4)
		out.ProcessTime = &s
	}
	// stored params are always valid JSON objects
	out.Params, _ = rec.GetParams()
	return out
}

// NewReportTypeDTO converts a definition for the API
func NewReportTypeDTO(def report.Definition) ReportTypeDTO {
	fields := def.Fields
	if fields == nil {
		fields = []report.Field{}
	}
	return ReportTypeDTO{Name: def.Name, Title: def.Title, Fields: fields}
}
