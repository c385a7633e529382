package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cuongbtq/onmydesk/internal/app"
	"github.com/cuongbtq/onmydesk/internal/config"
	"github.com/cuongbtq/onmydesk/shared/logger"
)

const defaultConfigPath = "configs/onmydesk/config.yaml"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onmydesk",
		Short: "Generate report files from SQL datasources",
		Long: `onmydesk runs registered report definitions against configured datasources
and writes their rows to CSV, TSV, XLSX or Markdown files.

Records created here are processed in-process; the API enqueues them for the
worker service instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configPath := os.Getenv("ONMYDESK_CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cmd.PersistentFlags().StringP("config", "c", configPath, "Path to configuration file")

	cmd.AddCommand(NewReportsCmd())
	cmd.AddCommand(NewCreateCmd())
	cmd.AddCommand(NewProcessCmd())
	cmd.AddCommand(NewSchedulerCmd())
	cmd.AddCommand(NewTokenCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// services holds what a command that touches the database needs
type services struct {
	*app.App
	log *logger.Logger
}

func (s *services) Close() {
	s.App.Close()
	s.log.Close()
}

func openServices(ctx context.Context, cmd *cobra.Command) (*services, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateCLIConfig(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := app.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a, err := app.New(ctx, cfg, log.Logger, nil)
	if err != nil {
		log.Close()
		return nil, err
	}
	return &services{App: a, log: log}, nil
}
