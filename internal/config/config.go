// Package config defines the process configuration for the PhoA trigger-alert
// service. Configuration is loaded once during initialization (Lambda cold start
// or server boot) and treated as read-only afterwards.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format fails the load.
package config

import (
	"time"

	"phoa/internal/types"
)

// SecretString is an alias for types.SecretString so configuration secrets are
// redacted wherever they are printed or logged.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Components receive only the
// sub-struct they need.
type Config struct {
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"OTEL_SERVICE_NAME" default:"phoa-service"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	Lookup        LookupConfig
	Evaluation    EvaluationConfig
	Security      SecurityConfig
	Observability ObservabilityConfig

	// Injected via ldflags, not env.
	Build BuildInfo
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	AcquireTimeout    time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"2s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig holds AWS resource identifiers and regional configuration.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"eu-central-1"`

	// AlertQueue receives evaluation results for downstream delivery. Publishing
	// is disabled when empty.
	AlertQueue string `envconfig:"SQS_ALERTS" validate:"omitempty,url"`

	// LocalStack support (empty in prod).
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// LookupConfig configures the context lookups performed during normalization.
type LookupConfig struct {
	NominatimURL string `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org" validate:"url"`
	WeatherURL   string `envconfig:"OPEN_METEO_URL" default:"https://api.open-meteo.com" validate:"url"`
	SunriseURL   string `envconfig:"SUNRISE_URL" default:"https://api.sunrise-sunset.org" validate:"url"`
	UserAgent    string `envconfig:"LOOKUP_USER_AGENT" default:"PhoA-PhobiaApp/1.0"`

	// Timeout bounds each lookup including retries.
	Timeout    time.Duration `envconfig:"LOOKUP_TIMEOUT" default:"5s" validate:"min=3s,max=10s"`
	MaxRetries int           `envconfig:"LOOKUP_MAX_RETRIES" default:"1" validate:"min=0,max=3"`

	// Offline swaps every provider for a fixed local stub.
	Offline bool `envconfig:"LOOKUP_OFFLINE" default:"false"`
}

// EvaluationConfig holds the tunable trigger policy.
type EvaluationConfig struct {
	// ToleranceFraction is the share of a numeric signal's domain width within
	// which a reading matches a rule target.
	ToleranceFraction float64 `envconfig:"EVAL_TOLERANCE_FRACTION" default:"0.15" validate:"gt=0,lte=1"`
	// RestingHeartRate is the BPM at or above which heart rate counts as elevated.
	RestingHeartRate float64 `envconfig:"EVAL_RESTING_HEART_RATE" default:"100" validate:"gte=40,lte=200"`
	// ExpectedRuleCount is the number of sensor rules a document must carry.
	ExpectedRuleCount int `envconfig:"EVAL_EXPECTED_RULE_COUNT" default:"8" validate:"min=1"`
	// InformationalAlerts toggles the wall-clock notices.
	InformationalAlerts bool `envconfig:"EVAL_INFORMATIONAL_ALERTS" default:"true"`
	// TextOnlyFallback evaluates conditions lacking a usable rule document on
	// the text channel instead of skipping them.
	TextOnlyFallback bool `envconfig:"EVAL_TEXT_ONLY_FALLBACK" default:"false"`
}

// SecurityConfig holds CORS settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"PhoA"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be parsed into its
	// target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
