package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timekeeping-backend/internal/api"
	"timekeeping-backend/internal/auth"
	"timekeeping-backend/internal/db"
	"timekeeping-backend/internal/logging"
	"timekeeping-backend/internal/payroll"
	"timekeeping-backend/internal/policy"
	"timekeeping-backend/internal/review"
	"timekeeping-backend/internal/shift"
	"timekeeping-backend/internal/store"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the payroll feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(&cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("configuration loaded", zap.String("path", opts.configPath))

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		return err
	}
	appStore := store.NewGormStore(gormDB)

	var publisher payroll.Publisher = payroll.NewLogPublisher(logger)
	if cfg.Redis.Addr != "" {
		rdb, err := payroll.NewRedisClient(&cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer rdb.Close()
		publisher = payroll.NewStreamPublisher(rdb, &cfg.Payroll)
	} else {
		logger.Warn("redis not configured, verified timesheets are only logged")
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	pool := payroll.NewWorkerPool(cfg.Payroll.WorkerPool, cfg.Payroll.QueueSize, publisher, logger)
	pool.Start(workerCtx)

	if cfg.Log.Format == "json" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(
		shift.NewService(appStore, logger),
		review.NewService(appStore, pool, logger, nil),
		policy.NewService(appStore, time.Duration(cfg.Server.CacheTTLSeconds)*time.Second, logger),
		logger,
	)
	router := api.NewRouter(handler, auth.NewManager(&cfg.Auth), &cfg.Server, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		cancelWorkers()
		pool.Wait()
		return fmt.Errorf("HTTP server ListenAndServe: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
	defer shutdownCancel()
	shutdownErr := server.Shutdown(shutdownCtx)

	// Approvals are done once the server stops; give queued timesheets the
	// rest of the shutdown window.
	drain(shutdownCtx, pool)
	cancelWorkers()
	pool.Wait()

	if shutdownErr != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", shutdownErr)
	}
	logger.Info("server gracefully stopped")
	return nil
}

func drain(ctx context.Context, pool *payroll.WorkerPool) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for len(pool.Jobs()) > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
