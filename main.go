package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pingpong-elo/internal/config"
	"github.com/mauv0809/pingpong-elo/internal/database"
	"github.com/mauv0809/pingpong-elo/internal/engine"
	server "github.com/mauv0809/pingpong-elo/internal/http"
	"github.com/mauv0809/pingpong-elo/internal/league"
	"github.com/mauv0809/pingpong-elo/internal/metrics"
	"github.com/mauv0809/pingpong-elo/internal/notifier"
	"github.com/mauv0809/pingpong-elo/internal/notifier/slack"
	"github.com/mauv0809/pingpong-elo/internal/pubsub"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	eng := engine.New(league.New(db), metricsSvc, engine.Options{
		StartingRating: cfg.Rating.StartingRating,
		Policy:         cfg.Rating.Policy(),
		Order:          cfg.Rating.Order,
	})

	var notif notifier.Notifier = notifier.Noop{}
	if cfg.Slack.Token != "" {
		notif = slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)
	} else {
		log.Warn("SLACK_BOT_TOKEN not set, Slack notifications disabled")
	}

	ps := pubsub.NewNoop()
	if cfg.ProjectID != "" {
		ps, err = pubsub.New(context.Background(), cfg.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
	}
	defer ps.Close()

	if cfg.Rating.RecalculateOnStart {
		res, err := eng.RecalculateAll(context.Background())
		if err != nil {
			log.Fatalf("Failed to recalculate ratings: %s", err)
		}
		log.Info("Recalculated ratings at startup", "applied", len(res.Applied), "anomalies", len(res.Anomalies))
	}

	s := server.NewServer(eng, metricsSvc, metricsHandler, cfg, notif, ps)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port, "startingRating", eng.StartingRating(), "order", cfg.Rating.Order)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
