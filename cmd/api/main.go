// Package main is the entry point for the PhoA API server.
//
// It loads configuration, builds the evaluation pipeline over Postgres and
// the lookup providers, mounts the handlers on the core chassis and serves
// them either as a plain HTTP server or behind API Gateway (HTTP API, payload
// v2) when running inside Lambda.
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"phoa/internal/api/handlers"
	"phoa/internal/app"
	"phoa/internal/config"
	"phoa/internal/core"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// pipeline is the engine surface the handlers need.
type pipeline interface {
	handlers.AlertEvaluator
	handlers.ContextNormalizer
	handlers.RuleService
}

func run() error {
	// Under APP_ENV=local pointers resolve against the environment instead of SSM.
	cfg, err := config.LoadConfig(config.NewSecretProvider(os.Getenv("APP_ENV"), os.Getenv("AWS_REGION")))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := config.NewLogger(cfg.LogLevel)
	logger.Info("phoa API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()
	components, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv, err := buildServer(cfg, logger, components.Engine, components.Metrics,
		core.DatabaseProbe{DB: components.Pool})
	if err != nil {
		components.Close()
		return err
	}
	srv.OnShutdown = append(srv.OnShutdown, components.Close)

	if isLambdaEnvironment() {
		logger.Info("serving API Gateway events")
		lambda.Start(lambdaHandler(srv))
		return nil
	}
	return runHTTPServer(srv, cfg, logger)
}

// buildServer mounts every handler on a fresh chassis.
func buildServer(cfg *config.Config, logger *slog.Logger, p pipeline, metrics core.MetricsCollector, probes ...core.HealthProbe) (*core.Server, error) {
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = metrics
	srv.HealthProbes = probes

	alertHandler := handlers.NewAlertHandler(p, srv.Validator, logger)
	contextHandler := handlers.NewContextHandler(p, srv.Validator, logger)
	ruleHandler := handlers.NewRuleHandler(p, srv.Validator, logger)
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		alertHandler.RegisterRoutes,
		contextHandler.RegisterRoutes,
		ruleHandler.RegisterRoutes,
	)

	srv.MountRoutes()
	return srv, nil
}

// lambdaHandler bridges API Gateway HTTP API (payload v2) events to the
// chi router.
func lambdaHandler(srv *core.Server) func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return httpadapter.NewV2(srv.Handler()).ProxyWithContext
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}
