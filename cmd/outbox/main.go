// Command outbox runs the outbox sender poller of spec.md §4.6.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/followup-pipeline/internal/channel"
	"github.com/dmitrymomot/followup-pipeline/internal/config"
	"github.com/dmitrymomot/followup-pipeline/internal/outboxsender"
	"github.com/dmitrymomot/followup-pipeline/internal/store"
	"github.com/dmitrymomot/followup-pipeline/pkg/db"
	"github.com/dmitrymomot/followup-pipeline/pkg/health"
	"github.com/dmitrymomot/followup-pipeline/pkg/logger"
	"github.com/dmitrymomot/followup-pipeline/pkg/mailer/resend"
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

	outbox := store.NewOutboxStore(pool)
	tasks := store.NewTaskStore(pool)
	events := store.NewEventStore(pool, log)

	emailSender := channel.NewEmailSender(resend.New(cfg.Resend), "")
	chatSender := channel.NewChatSender(cfg.ChatSendURL, cfg.ChatSendKey, cfg.ExternalCallTimeout)

	registry := channel.Registry{
		store.ChannelEmail: emailSender,
		store.ChannelChat:  chatSender,
	}

	sender := outboxsender.New(outbox, tasks, events, registry, cfg.OutboxMaxAttempts, cfg.OutboxClaimBatch, cfg.OutboxPollInterval, log)

	mux := http.NewServeMux()
	mux.Handle("/health/live", health.LivenessHandler())
	mux.Handle("/health/ready", health.ReadinessHandler(health.Checks{
		"db": db.Healthcheck(pool),
	}))
	server := &http.Server{Addr: ":9094", Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("outbox health server error", slog.Any("error", err))
		}
	}()

	log.Info("outbox sender running", slog.Duration("poll_interval", cfg.OutboxPollInterval))
	sender.Run(ctx)

	log.Info("outbox sender shutting down")
	_ = server.Close()
}
