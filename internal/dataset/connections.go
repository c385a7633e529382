package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DefaultDatasource is the name of the application database datasource
const DefaultDatasource = "default"

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// driverNames maps configured driver names to registered database/sql drivers
var driverNames = map[string]string{
	"postgres":   "postgres",
	"postgresql": "postgres",
	"mysql":      "mysql",
	"sqlite":     "sqlite",
	"sqlite3":    "sqlite",
}

// SourceConfig describes a named datasource
type SourceConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Connections lazily opens and caches datasource connection pools by name
type Connections struct {
	mu      sync.Mutex
	sources map[string]SourceConfig
	dbs     map[string]*sqlx.DB
	owned   map[string]bool
	logger  *slog.Logger
}

// NewConnections creates a registry over the configured datasources
func NewConnections(sources map[string]SourceConfig, logger *slog.Logger) *Connections {
	if sources == nil {
		sources = map[string]SourceConfig{}
	}
	return &Connections{
		sources: sources,
		dbs:     make(map[string]*sqlx.DB),
		owned:   make(map[string]bool),
		logger:  logger,
	}
}

// Add registers an already opened database under name. The caller keeps
// ownership: Close will not close it.
func (c *Connections) Add(name string, db *sqlx.DB) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dbs[name] = db
	c.owned[name] = false
}

// Names returns every known datasource name, sorted
func (c *Connections) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{})
	for name := range c.sources {
		seen[name] = struct{}{}
	}
	for name := range c.dbs {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the connection pool for name, opening it on first use
func (c *Connections) Get(ctx context.Context, name string) (*sqlx.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if db, ok := c.dbs[name]; ok {
		return db, nil
	}

	src, ok := c.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDatasource, name)
	}
	driver, ok := driverNames[src.Driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, src.Driver)
	}

	db, err := sqlx.Open(driver, src.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open datasource %s: %w", name, err)
	}
	if src.MaxOpenConns > 0 {
		db.SetMaxOpenConns(src.MaxOpenConns)
	}
	if src.MaxIdleConns > 0 {
		db.SetMaxIdleConns(src.MaxIdleConns)
	}
	if src.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(src.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping datasource %s: %w", name, err)
	}

	if c.logger != nil {
		c.logger.Info("Datasource connected",
			slog.String("datasource", name),
			slog.String("driver", driver),
		)
	}

	c.dbs[name] = db
	c.owned[name] = true
	return db, nil
}

// Close closes every pool opened by the registry
func (c *Connections) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for name, db := range c.dbs {
		if !c.owned[name] {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close datasource %s: %w", name, err)
		}
		delete(c.dbs, name)
	}
	return firstErr
}
