package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaekwang-park/todo-steps/internal/config"
	todohttp "github.com/jaekwang-park/todo-steps/internal/http"
	"github.com/jaekwang-park/todo-steps/internal/repository"
	"github.com/jaekwang-park/todo-steps/internal/service"
)

var (
	envFile     string
	autoMigrate bool
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	rootCmd := &cobra.Command{
		Use:          "todo-api",
		Short:        "Todo and steps HTTP API",
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to seed the environment from")
	rootCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "create the schema before serving")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "create the schema before serving")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the todos and steps tables",
		RunE:  runMigrate,
	})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, *slog.Logger, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return config.Config{}, nil, err
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.ParseLogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"db_driver", cfg.DB.Driver,
		"log_level", cfg.LogLevel,
	)
	return cfg, logger, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := repository.NewDB(cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(cmd.Context(), db, cfg.DB.Driver); err != nil {
		return err
	}

	logger.Info("schema migrated")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	// Database connection
	db, err := repository.NewDB(cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	if autoMigrate {
		if err := repository.Migrate(cmd.Context(), db, cfg.DB.Driver); err != nil {
			return err
		}
	}

	store := repository.NewSQLStore(db, cfg.DB.Driver)
	todoSvc := service.NewTodoService(store)

	// HTTP Server
	srv := todohttp.NewServer(cfg.ServerPort, logger, todoSvc)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	logger.Info("server starting", "port", cfg.ServerPort)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully")
	return nil
}
