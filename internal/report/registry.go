package report

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cuongbtq/onmydesk/internal/dataset"
	"github.com/cuongbtq/onmydesk/internal/output"
)

// Env is what factories need to build a report: datasource connections and
// the directory outputs are written to.
type Env struct {
	Connections *dataset.Connections
	OutputDir   string
}

// Output creates an output of the given kind in the environment output dir
func (e *Env) Output(kind string) (output.Output, error) {
	return output.New(kind, e.OutputDir)
}

// SQL creates a dataset running query on datasource
func (e *Env) SQL(datasource, query string, queryParams ...string) *dataset.SQLDataset {
	return dataset.NewSQLDataset(e.Connections, datasource, query, queryParams...)
}

// Factory builds a report bound to params
type Factory func(env *Env, params Params) (*Report, error)

// Definition is a registered report: its dotted name, a human title, the
// params it accepts and how to build it.
type Definition struct {
	Name    string
	Title   string
	Fields  []Field
	Factory Factory
}

// Registry resolves report definitions by dotted name ("sales.MonthlyReport")
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
	now  func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]Definition),
		now:  time.Now,
	}
}

// Register adds a definition. Names must be unique.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" || def.Factory == nil {
		return fmt.Errorf("report definition needs a name and a factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[def.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateReport, def.Name)
	}
	if def.Title == "" {
		def.Title = def.Name
	}
	r.defs[def.Name] = def
	return nil
}

// MustRegister is Register for package-level catalogs; it panics on error
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition registered under name
func (r *Registry) Lookup(name string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownReport, name)
	}
	return def, nil
}

// Title returns the human title of name, or name itself when unknown
func (r *Registry) Title(name string) string {
	def, err := r.Lookup(name)
	if err != nil {
		return name
	}
	return def.Title
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns every registered definition sorted by name
func (r *Registry) Definitions() []Definition {
	names := r.Names()
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		def, _ := r.Lookup(name)
		defs = append(defs, def)
	}
	return defs
}

// Validate checks params against the fields of the named definition and
// returns them with defaults applied.
func (r *Registry) Validate(name string, params Params) (Params, error) {
	return r.ValidateAt(name, params, r.now())
}

// ValidateAt is Validate with defaults and date expressions resolved against
// reference instead of the current time.
func (r *Registry) ValidateAt(name string, params Params, reference time.Time) (Params, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return ValidateParams(def.Fields, params, reference)
}

// Build validates params and builds the named report
func (r *Registry) Build(env *Env, name string, params Params) (*Report, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	validated, err := ValidateParams(def.Fields, params, r.now())
	if err != nil {
		return nil, err
	}

	rep, err := def.Factory(env, validated)
	if err != nil {
		return nil, fmt.Errorf("failed to build report %s: %w", name, err)
	}
	if rep.Name == "" {
		rep.Name = def.Name
	}
	if rep.Title == "" {
		rep.Title = def.Title
	}
	if rep.Fields == nil {
		rep.Fields = def.Fields
	}
	if rep.Params == nil {
		rep.Params = validated
	}
	return rep, nil
}
