package report

import (
	"fmt"

	"github.com/cuongbtq/onmydesk/internal/output"
)

// SQLReport declares a report over a raw SQL query.
//
//	reg.MustRegister(report.SQLReport{
//		Name:  "sales.All",
//		Query: "SELECT * FROM sales",
//	}.Definition())
//
// Outputs default to a single TSV file.
type SQLReport struct {
	Name        string
	Title       string
	Fields      []Field
	Datasource  string
	Query       string
	QueryParams []string
	Header      []string
	Footer      []string
	Outputs     []string
	CleanRow    RowCleaner
}

// Definition turns the declaration into a registrable definition
func (s SQLReport) Definition() Definition {
	return Definition{
		Name:    s.Name,
		Title:   s.Title,
		Fields:  s.Fields,
		Factory: s.build,
	}
}

func (s SQLReport) build(env *Env, params Params) (*Report, error) {
	kinds := s.Outputs
	if len(kinds) == 0 {
		kinds = []string{output.KindTSV}
	}

	outputs := make([]output.Output, 0, len(kinds))
	for _, kind := range kinds {
		o, err := env.Output(kind)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", s.Name, err)
		}
		outputs = append(outputs, o)
	}

	return &Report{
		Name:     s.Name,
		Title:    s.Title,
		Fields:   s.Fields,
		Params:   params,
		Header:   s.Header,
		Footer:   s.Footer,
		Dataset:  env.SQL(s.Datasource, s.Query, s.QueryParams...),
		Outputs:  outputs,
		CleanRow: s.CleanRow,
	}, nil
}
