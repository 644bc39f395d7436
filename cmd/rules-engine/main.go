// Package main is the entrypoint for the rules-engine Lambda function.
//
// The function is invoked directly with {phobias, context, groupMessages}
// and answers {success, alerts, error}. Failures are reported in the body;
// the invocation itself never errors, so callers need no retry handling.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"phoa/internal/app"
	"phoa/internal/config"
)

func main() {
	bootLogger := config.NewLogger(os.Getenv("LOG_LEVEL"))
	bootLogger.Info("rules-engine Lambda initializing (cold start)")

	cfg, err := config.LoadConfig(config.NewSecretProvider(os.Getenv("APP_ENV"), os.Getenv("AWS_REGION")))
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.LogLevel).With("function", "rules-engine")

	components, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	logger.Info("rules-engine Lambda initialized",
		"version", cfg.Build.Version,
		"informational_alerts", cfg.Evaluation.InformationalAlerts,
		"alert_queue", cfg.AWS.AlertQueue != "",
	)

	lambda.Start(components.Engine.HandleLambda)
}
