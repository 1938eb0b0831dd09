// Package config loads process configuration from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v9"

	"github.com/dmitrymomot/followup-pipeline/pkg/logger"
	"github.com/dmitrymomot/followup-pipeline/pkg/mailer"
	"github.com/dmitrymomot/followup-pipeline/pkg/mailer/resend"
)

// Config holds every setting any of the pipeline's processes may need.
// Each process loads the same struct and reads only the fields it uses;
// unread fields are harmless (e.g. INGRESS_PORT is ignored by cmd/scheduler).
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL"`

	IngressPort string `env:"INGRESS_PORT" envDefault:"8080"`
	AdminPort   string `env:"ADMIN_PORT" envDefault:"8081"`

	OutboxMaxAttempts    int           `env:"OUTBOX_MAX_ATTEMPTS" envDefault:"5"`
	OutboxPollInterval   time.Duration `env:"OUTBOX_POLL_INTERVAL_MS" envDefault:"5000ms"`
	SchedulerCron        string        `env:"SCHEDULER_CRON" envDefault:"* * * * *"`
	RetentionDays        int           `env:"RETENTION_DAYS" envDefault:"60"`

	EmailWebhookSecret string `env:"EMAIL_WEBHOOK_SECRET"`
	ChatAppSecret      string `env:"CHAT_APP_SECRET"`
	ChatVerifyToken    string `env:"CHAT_VERIFY_TOKEN"`

	ExtractorURL string        `env:"EXTRACTOR_URL"`
	ExtractorKey string        `env:"EXTRACTOR_KEY"`
	DrafterURL   string        `env:"DRAFTER_URL"`
	DrafterKey   string        `env:"DRAFTER_KEY"`
	ChatSendURL  string        `env:"CHAT_SEND_URL"`
	ChatSendKey  string        `env:"CHAT_SEND_KEY"`
	ExternalCallTimeout time.Duration `env:"EXTERNAL_CALL_TIMEOUT" envDefault:"30s"`

	IngestConcurrency   int `env:"INGEST_CONCURRENCY" envDefault:"5"`
	ExecutorConcurrency int `env:"EXECUTOR_CONCURRENCY" envDefault:"5"`

	SchedulerClaimBatch int `env:"SCHEDULER_CLAIM_BATCH" envDefault:"100"`
	OutboxClaimBatch    int `env:"OUTBOX_CLAIM_BATCH" envDefault:"20"`

	Sentry logger.SentryConfig
	Mailer mailer.Config
	Resend resend.Config
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
