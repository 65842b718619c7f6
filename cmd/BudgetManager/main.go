package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/sebuszqo/BudgetManager/internal/auth"
	"github.com/sebuszqo/BudgetManager/internal/config"
	database "github.com/sebuszqo/BudgetManager/internal/db"
	"github.com/sebuszqo/BudgetManager/internal/finance/application"
	"github.com/sebuszqo/BudgetManager/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, warning := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.IsDevelopment()})
	if warning != nil {
		log.WithError(warning).Warn("continuing with system environment variables")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("missing configuration, update to start server")
	}

	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbService, err := database.NewDBService(ctx, cfg.DBConnectionString, log)
	if err != nil {
		log.WithError(err).Fatal("could not initialize database")
	}
	defer dbService.Close()

	if err := database.Migrate(dbService.DB, log); err != nil {
		log.WithError(err).Fatal("could not migrate database")
	}

	sessions := auth.NewSessionManager()
	server := NewServer(cfg, log, postgresRepositories(dbService.DB), sessions, application.SystemClock, dbService.Health)

	scheduler := cron.New()
	_, err = auth.ScheduleSessionCleanup(scheduler, cfg.SessionCleanupSpec, sessions, func(removed int) {
		if removed > 0 {
			log.WithField("removed", removed).Debug("expired two-factor sessions purged")
		}
	})
	if err != nil {
		log.WithError(err).Fatal("scheduler didn't start, stopping the app")
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server failed")
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}
