// Package app assembles the evaluation pipeline from configuration. The API
// server and both Lambda entry points share it, so every binary runs the same
// engine over the same stores.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"phoa/internal/alerts"
	"phoa/internal/config"
	"phoa/internal/db"
	"phoa/internal/engine"
	"phoa/internal/evaluator"
	"phoa/internal/external"
	"phoa/internal/metrics"
	"phoa/internal/queue"
	"phoa/internal/rules"
	"phoa/internal/sensorctx"
	"phoa/internal/types"
)

// Metrics is everything the pipeline reports to.
type Metrics interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
	RecordLookupFailure(ctx context.Context, lookup string)
	engine.Recorder
}

// App holds the long-lived components built at cold start.
type App struct {
	Pool    *pgxpool.Pool
	Engine  *engine.Service
	Metrics Metrics
}

// Dependencies are the external resources the pipeline is built over.
type Dependencies struct {
	Repos   types.RepositoryRegistry
	Lookups *external.ClientRegistry
	Queue   queue.SQSSender
	Metrics Metrics
}

// New connects to Postgres and AWS and builds the engine.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	deps := Dependencies{
		Repos:   db.NewRegistry(pool),
		Lookups: external.NewClientRegistry(cfg.Lookup, logger),
		Metrics: newMetrics(cfg, awsCfg, logger),
	}
	if cfg.AWS.AlertQueue != "" {
		deps.Queue = sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
	}

	svc, err := NewEngine(cfg, deps, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &App{Pool: pool, Engine: svc, Metrics: deps.Metrics}, nil
}

// Close releases the connection pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// NewEngine wires the pipeline over deps. A nil Queue disables alert
// hand-off and a nil Metrics reports nowhere.
func NewEngine(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*engine.Service, error) {
	if deps.Repos == nil {
		return nil, fmt.Errorf("app: repository registry must not be nil")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}

	catalog, err := alerts.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("loading recommendation catalog: %w", err)
	}

	var lookups sensorctx.Lookups
	if deps.Lookups != nil {
		lookups = sensorctx.Lookups{
			Geocoder:  deps.Lookups.Geocoder,
			Weather:   deps.Lookups.Weather,
			Elevation: deps.Lookups.Elevation,
			SunTimes:  deps.Lookups.SunTimes,
		}
	}
	normalizer := sensorctx.NewNormalizer(lookups, cfg.Lookup.Timeout, logger,
		sensorctx.WithFailureObserver(deps.Metrics))

	var publisher engine.AlertPublisher
	if deps.Queue != nil && cfg.AWS.AlertQueue != "" {
		publisher = queue.NewAlertPublisher(deps.Queue, cfg.AWS.AlertQueue, logger)
	}

	return engine.NewService(engine.Config{
		Conditions: deps.Repos.Conditions(),
		Rules:      deps.Repos.RuleDocuments(),
		Treatments: deps.Repos.Treatments(),
		Validator:  rules.NewValidator(cfg.Evaluation.ExpectedRuleCount, logger),
		Normalizer: normalizer,
		Evaluator: evaluator.New(evaluator.Config{
			Tolerance:        cfg.Evaluation.ToleranceFraction,
			RestingHeartRate: cfg.Evaluation.RestingHeartRate,
		}, logger),
		Ranker:           alerts.NewRanker(),
		Catalog:          catalog,
		Publisher:        publisher,
		Recorder:         deps.Metrics,
		Informational:    cfg.Evaluation.InformationalAlerts,
		TextOnlyFallback: cfg.Evaluation.TextOnlyFallback,
		Logger:           logger,
	})
}

func newMetrics(cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) Metrics {
	if !cfg.Observability.EnableMetrics {
		return metrics.Nop{}
	}
	client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	return metrics.NewCloudWatchRecorder(client, cfg.Observability.MetricNamespace, logger)
}
