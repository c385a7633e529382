package storage

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

// Storage handles all database operations for report records and schedulers
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the tables and indexes when they do not exist
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.logger.Info("Database schema is up to date")
	return nil
}
