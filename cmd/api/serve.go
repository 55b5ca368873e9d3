package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"bugboard/configs"
	v1 "bugboard/internal/api/v1"
	"bugboard/internal/config"
	"bugboard/internal/repository"
	"bugboard/pkg/database"
	"bugboard/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := configs.LoadConfig()

	// Inisialisasi logger
	logger.InitLoggers(cfg.LogDir)
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))
	if missing := cfg.Missing(); len(missing) > 0 {
		logger.SystemLogger.Warn("Missing environment variables", zap.Strings("vars", missing))
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	logger.SystemLogger.Info("Database Connected")

	if err := repository.CreateTableIfNotExists(db); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		logger.SystemLogger.Info("Redis Connected")
	}

	config.Setup(cfg, db, rdb)
	go config.Hub.Run(ctx)

	app := v1.NewApp(cfg)
	go func() {
		<-ctx.Done()
		logger.SystemLogger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.ErrorLogger.Error("Shutdown error", zap.Error(err))
		}
	}()

	logger.SystemLogger.Info("Application ready", zap.Int("port", cfg.Port))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
		return err
	}
	return nil
}
