package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"accounts/internal/config"
	"accounts/internal/db"
	"accounts/internal/db/migrations"
	"accounts/internal/repository"
	"accounts/internal/routes"
)

// @title User Account Service API
// @version 1.0
// @description Registration, login and password-reset flows.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if err := db.CreateDatabaseIfNotExists(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to ensure database exists", zap.Error(err))
	}

	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := migrations.RunMigrations(database.DB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	router := routes.SetupRoutes(database.DB, cfg, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Periodically drop consumed-token rows whose tokens have expired.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepConsumedTokens(sweepCtx, repository.NewResetTokenRepository(database.DB), logger)

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Give server 5 seconds to finish current requests
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}

func sweepConsumedTokens(ctx context.Context, resets repository.ResetTokenRepository, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := resets.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				logger.Error("failed to sweep consumed reset tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("swept consumed reset tokens", zap.Int64("deleted", n))
			}
		}
	}
}
