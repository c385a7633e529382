// Package app wires the report services from configuration. The API, the
// worker and the CLI all build their dependencies through it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cuongbtq/onmydesk/internal/auth"
	"github.com/cuongbtq/onmydesk/internal/catalog"
	"github.com/cuongbtq/onmydesk/internal/config"
	"github.com/cuongbtq/onmydesk/internal/dataset"
	"github.com/cuongbtq/onmydesk/internal/filehandler"
	"github.com/cuongbtq/onmydesk/internal/report"
	"github.com/cuongbtq/onmydesk/internal/scheduler"
	"github.com/cuongbtq/onmydesk/internal/service"
	"github.com/cuongbtq/onmydesk/internal/storage"
	"github.com/cuongbtq/onmydesk/shared/logger"
	"github.com/cuongbtq/onmydesk/shared/postgresql"
	"github.com/cuongbtq/onmydesk/shared/rabbitmq"
)

// App holds the wired services
type App struct {
	Logger      *slog.Logger
	DBClient    *postgresql.Client
	Storage     *storage.Storage
	Registry    *report.Registry
	Connections *dataset.Connections
	FileHandler filehandler.Handler
	Reports     *service.ReportService
	Schedulers  *scheduler.Service
}

// New connects to the application database and builds the services.
// publisher may be nil when records are never enqueued (CLI).
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, publisher service.Publisher) (*App, error) {
	dbClient, err := NewPostgreSQL(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a, err := build(ctx, cfg, logger, dbClient, publisher)
	if err != nil {
		dbClient.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, logger *slog.Logger, dbClient *postgresql.Client, publisher service.Publisher) (*App, error) {
	registry := report.NewRegistry()
	if err := catalog.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register built-in reports: %w", err)
	}

	if err := os.MkdirAll(cfg.Reports.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	connections := dataset.NewConnections(Datasources(cfg.Datasources), logger)
	if _, ok := cfg.Datasources[dataset.DefaultDatasource]; !ok {
		connections.Add(dataset.DefaultDatasource, dbClient.GetDB())
	}

	fileHandler, err := filehandler.New(ctx, FileHandlerConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file handler: %w", err)
	}

	store := storage.NewStorage(dbClient.GetDB(), logger)

	reports := service.NewReportService(&service.Config{
		Logger:      logger,
		Store:       store,
		Registry:    registry,
		Env:         &report.Env{Connections: connections, OutputDir: cfg.Reports.OutputDir},
		FileHandler: fileHandler,
		Publisher:   publisher,
	})

	schedulers := scheduler.NewService(&scheduler.Config{
		Logger:      logger,
		Store:       store,
		Runner:      reports,
		Registry:    registry,
		Concurrency: cfg.Scheduler.Concurrency,
	})

	logger.Info("Report services initialized",
		slog.Int("definitions", len(registry.Names())),
		slog.Any("datasources", connections.Names()),
		slog.String("file_handler", cfg.Reports.FileHandler),
		slog.String("output_dir", cfg.Reports.OutputDir),
	)

	return &App{
		Logger:      logger,
		DBClient:    dbClient,
		Storage:     store,
		Registry:    registry,
		Connections: connections,
		FileHandler: fileHandler,
		Reports:     reports,
		Schedulers:  schedulers,
	}, nil
}

// Close releases datasource pools and the application database
func (a *App) Close() error {
	if err := a.Connections.Close(); err != nil {
		a.Logger.Error("Failed to close datasources", slog.String("error", err.Error()))
	}
	return a.DBClient.Close()
}

// NewLogger initializes and configures the application logger
func NewLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// NewIssuer builds the JWT issuer from the auth settings
func NewIssuer(cfg *config.AuthConfig) *auth.Issuer {
	return auth.NewIssuer(cfg.JWTSecret, cfg.Issuer, cfg.TokenTTL)
}

// NewPostgreSQL initializes the PostgreSQL database client
func NewPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// NewRabbitMQ initializes the RabbitMQ client
func NewRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	return rabbitmq.NewClient(RabbitMQConfig(cfg), logger)
}

// RabbitMQConfig maps the YAML settings onto the client configuration
func RabbitMQConfig(cfg *config.RabbitMQConfig) *rabbitmq.Config {
	return &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		ConsumerExclusive:  cfg.Consumer.Exclusive,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}
}

// Datasources maps configured datasources onto dataset sources
func Datasources(cfg map[string]config.DatasourceConfig) map[string]dataset.SourceConfig {
	sources := make(map[string]dataset.SourceConfig, len(cfg))
	for name, ds := range cfg {
		sources[name] = dataset.SourceConfig{
			Driver:          ds.Driver,
			DSN:             ds.DSN,
			MaxOpenConns:    ds.MaxOpenConns,
			MaxIdleConns:    ds.MaxIdleConns,
			ConnMaxLifetime: ds.ConnMaxLifetime,
		}
	}
	return sources
}

// FileHandlerConfig maps the reports and storage settings onto a file handler
func FileHandlerConfig(cfg *config.Config) filehandler.Config {
	m := cfg.Storage.MinIO
	return filehandler.Config{
		Name:       cfg.Reports.FileHandler,
		ArchiveDir: cfg.Reports.ArchiveDir,
		MinIO: filehandler.MinIOConfig{
			Endpoint:      m.Endpoint,
			AccessKey:     m.AccessKey,
			SecretKey:     m.SecretKey,
			Bucket:        m.Bucket,
			Prefix:        m.Prefix,
			UseSSL:        m.UseSSL,
			RemoveLocal:   m.RemoveLocal,
			PresignExpiry: m.PresignExpiry,
		},
	}
}
