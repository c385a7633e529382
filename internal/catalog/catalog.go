// Package catalog holds the report definitions shipped with onmydesk. They
// read the application's own tables through the default datasource.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cuongbtq/onmydesk/internal/dataset"
	"github.com/cuongbtq/onmydesk/internal/output"
	"github.com/cuongbtq/onmydesk/internal/report"
)

const (
	StatusSummary = "onmydesk.StatusSummary"
	ProcessTimes  = "onmydesk.ProcessTimes"
	Schedulers    = "onmydesk.Schedulers"
)

var periodFields = []report.Field{
	{Name: "start", Type: report.FieldDate, Default: "D-7", Help: "first day included (YYYY-MM-DD or D-n)"},
	{Name: "end", Type: report.FieldDate, Default: "D+1", Help: "first day excluded (YYYY-MM-DD or D+n)"},
}

// Definitions returns the built-in report definitions
func Definitions() []report.Definition {
	return []report.Definition{
		report.SQLReport{
			Name:   StatusSummary,
			Title:  "Report records by status",
			Fields: periodFields,
			Query: `SELECT status, COUNT(*) AS total
				FROM reports
				WHERE insert_date >= ? AND insert_date < ?
				GROUP BY status
				ORDER BY status`,
			QueryParams: []string{"start", "end"},
			Header:      []string{"Status", "Total"},
			Outputs:     []string{output.KindTSV, output.KindXLSX},
		}.Definition(),
		report.SQLReport{
			Name:   ProcessTimes,
			Title:  "Process time by report",
			Fields: periodFields,
			Query: `SELECT report, COUNT(*) AS runs, AVG(process_time) AS avg_secs, MAX(process_time) AS max_secs
				FROM reports
				WHERE status = 'processed' AND insert_date >= ? AND insert_date < ?
				GROUP BY report
				ORDER BY report`,
			QueryParams: []string{"start", "end"},
			Header:      []string{"Report", "Runs", "Average (secs)", "Max (secs)"},
			Outputs:     []string{output.KindCSV, output.KindMarkdown},
			CleanRow:    roundSeconds(2, 3),
		}.Definition(),
		report.SQLReport{
			Name:    Schedulers,
			Title:   "Scheduled reports",
			Query:   `SELECT report, periodicity, created_by, insert_date FROM schedulers ORDER BY report, insert_date`,
			Header:  []string{"Report", "Periodicity", "Created by", "Created at"},
			Outputs: []string{output.KindCSV},
		}.Definition(),
	}
}

// Register adds the built-in definitions to reg
func Register(reg *report.Registry) error {
	for _, def := range Definitions() {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// roundSeconds rounds the given columns to the precision process_time is
// stored with. Drivers return NUMERIC as text or float depending on backend.
func roundSeconds(columns ...int) report.RowCleaner {
	return func(row dataset.Row) (dataset.Row, error) {
		for _, i := range columns {
			if i >= len(row) || row[i] == nil {
				continue
			}
			d, err := toDecimal(row[i])
			if err != nil {
				return nil, fmt.Errorf("column %d: %w", i, err)
			}
			row[i] = d.Round(4)
		}
		return row, nil
	}
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case []byte:
		return decimal.NewFromString(string(v))
	case string:
		return decimal.NewFromString(v)
	}
	return decimal.Decimal{}, fmt.Errorf("unexpected value %v of type %T", value, value)
}
