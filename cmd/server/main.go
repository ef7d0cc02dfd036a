package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/quanthash/internal/config"
	"github.com/aristath/quanthash/internal/database"
	"github.com/aristath/quanthash/internal/history"
	"github.com/aristath/quanthash/internal/scheduler"
	"github.com/aristath/quanthash/internal/server"
	"github.com/aristath/quanthash/pkg/logger"
)

func main() {
	// Load configuration first to get the log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting quanthash")

	// History store is optional; without it the service still hashes,
	// it just stores nothing.
	var store server.HistoryStore
	sched := scheduler.New(log)

	if cfg.HistoryEnabled {
		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize history database")
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		repo := history.NewRepository(db.Conn(), log)
		store = repo

		if err := sched.AddJob("@daily", history.NewPruneJob(repo, cfg.HistoryRetentionDays)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register prune job")
		}
		sched.Start()
		defer sched.Stop()
	} else {
		log.Info().Msg("History disabled, results will not be stored")
	}

	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Config:  cfg,
		History: store,
		DevMode: cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
