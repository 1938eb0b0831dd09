// Command scheduler runs the periodic claim loop of spec.md §4.4.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/followup-pipeline/internal/config"
	"github.com/dmitrymomot/followup-pipeline/internal/queue"
	"github.com/dmitrymomot/followup-pipeline/internal/scheduler"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/pkg/db"
	"github.com/dmitrymomot/followup-pipeline/pkg/health"
	"github.com/dmitrymomot/followup-pipeline/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.NewWithSentry(cfg.Sentry)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, err := store.Open(ctx, cfg.DatabaseURL, log, false)
	if err != nil {
		log.Error("db open failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	tasks := store.NewTaskStore(pool)
	events := store.NewEventStore(pool, log)

	// Scheduler only dispatches execute jobs; it never processes them.
	enqueuer, err := queue.NewEnqueuer(pool, log)
	if err != nil {
		log.Error("enqueuer init failed", slog.Any("error", err))
		os.Exit(1)
	}

	sched, err := scheduler.New(tasks, events, enqueuer, cfg.SchedulerCron, cfg.SchedulerClaimBatch, log)
	if err != nil {
		log.Error("scheduler init failed", slog.Any("error", err))
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/health/live", health.LivenessHandler())
	mux.Handle("/health/ready", health.ReadinessHandler(health.Checks{
		"db": db.Healthcheck(pool),
	}))
	server := &http.Server{Addr: ":9093", Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("scheduler health server error", slog.Any("error", err))
		}
	}()

	log.Info("scheduler running", slog.String("cron", cfg.SchedulerCron))
	sched.Run(ctx)

	log.Info("scheduler shutting down")
	_ = server.Close()
}
