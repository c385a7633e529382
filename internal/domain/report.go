package domain

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Report is a persisted report record: one execution of a report definition
type Report struct {
	ID           string              `db:"id"`
	Report       string              `db:"report"`
	Status       string              `db:"status"`
	ProcessTime  decimal.NullDecimal `db:"process_time"`
	Params       sql.NullString      `db:"params"`
	Results      sql.NullString      `db:"results"`
	ErrorMessage sql.NullString      `db:"error_message"`
	CreatedBy    sql.NullString      `db:"created_by"`
	InsertDate   time.Time           `db:"insert_date"`
	UpdateDate   time.Time           `db:"update_date"`
}

// NewReport returns an unsaved pending record for the named definition
func NewReport(name string) *Report {
	return &Report{
		Report: name,
		Status: StatusPending,
	}
}

// IsSaved reports whether the record has an identity
func (r *Report) IsSaved() bool {
	return r.ID != ""
}

// IsTerminal reports whether the record finished processing, successfully or not
func (r *Report) IsTerminal() bool {
	return r.Status == StatusProcessed || r.Status == StatusError
}

// ResultsAsList returns the output locations stored in the record
func (r *Report) ResultsAsList() []string {
	return splitResults(r.Results)
}

// SetResults joins the output locations and stores them in the record
func (r *Report) SetResults(results []string) {
	r.Results = sql.NullString{String: strings.Join(results, ResultsSeparator), Valid: true}
}

// SetParams serializes params into the record
func (r *Report) SetParams(params map[string]any) error {
	encoded, err := encodeParams(params)
	if err != nil {
		return err
	}
	r.Params = encoded
	return nil
}

// GetParams returns the params stored in the record, nil if there are none
func (r *Report) GetParams() (map[string]any, error) {
	return decodeParams(r.Params)
}

// Label renders the record for humans, using the definition name
func (r *Report) Label(name string) string {
	if !r.IsSaved() {
		return name
	}
	return fmt.Sprintf("%s #%s", name, r.ID)
}

func splitResults(results sql.NullString) []string {
	if !results.Valid || results.String == "" {
		return []string{}
	}
	return strings.Split(results.String, ResultsSeparator)
}

func encodeParams(params map[string]any) (sql.NullString, error) {
	if params == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeParams(raw sql.NullString) (map[string]any, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw.String), &params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return params, nil
}
