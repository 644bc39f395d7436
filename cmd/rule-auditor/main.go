// Package main is the entrypoint for the rule-auditor Lambda function.
//
// An EventBridge schedule invokes it. Each run validates every stored
// condition and rule document, logs the report and publishes the tallies as
// metrics. Invalid items are reported, not fatal; only a storage failure
// fails the invocation so the schedule's retry policy applies.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"phoa/internal/app"
	"phoa/internal/config"
	"phoa/internal/types"
)

// Auditor runs the batch audit.
type Auditor interface {
	Audit(ctx context.Context) (types.AuditReport, error)
}

// Handler serves scheduled audit events.
type Handler struct {
	Auditor Auditor
	Logger  *slog.Logger
}

// Handle runs one audit and returns its summary line.
func (h *Handler) Handle(ctx context.Context, event events.CloudWatchEvent) (string, error) {
	start := time.Now()
	logger := h.Logger.With("event_id", event.ID, "scheduled_at", event.Time)
	logger.InfoContext(ctx, "rule audit started")

	report, err := h.Auditor.Audit(types.WithLogger(ctx, logger))
	if err != nil {
		logger.ErrorContext(ctx, "rule audit failed", "error", err)
		return "", err
	}

	for _, item := range report.Conditions.Errors {
		logger.WarnContext(ctx, "invalid condition", "item", item.Item, "violations", item.Violations)
	}
	for _, item := range report.RuleDocuments.Errors {
		logger.WarnContext(ctx, "invalid rule document", "item", item.Item, "violations", item.Violations)
	}
	logger.InfoContext(ctx, "rule audit finished",
		"summary", report.Summary,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report.Summary, nil
}

func main() {
	bootLogger := config.NewLogger(os.Getenv("LOG_LEVEL"))
	bootLogger.Info("rule-auditor Lambda initializing (cold start)")

	cfg, err := config.LoadConfig(config.NewSecretProvider(os.Getenv("APP_ENV"), os.Getenv("AWS_REGION")))
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.LogLevel).With("function", "rule-auditor")

	components, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	handler := &Handler{Auditor: components.Engine, Logger: logger}
	logger.Info("rule-auditor Lambda initialized", "version", cfg.Build.Version)

	lambda.Start(handler.Handle)
}
