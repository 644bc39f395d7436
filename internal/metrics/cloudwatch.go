// Package metrics publishes service telemetry to CloudWatch. Every emit is
// fire-and-forget: failures are logged and never returned to the caller.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/samber/lo"

	"phoa/internal/types"
)

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// emitTimeout bounds metric calls made on the request path. RecordRequest
// runs after the request context is gone; RecordLookupFailure runs inside a
// lookup whose context may already be cancelled.
const emitTimeout = 2 * time.Second

// CloudWatchRecorder emits:
//   - APILatency / APIRequestCount: Dims {Endpoint, Method, Status}
//   - Evaluation: no dims, milliseconds
//   - AlertsProduced: Dims {Severity}
//   - ConditionsSkipped: no dims
//   - ContextLookupFailure: Dims {Lookup}
//   - AuditValid / AuditInvalid: Dims {Collection}
//   - AlertPublishFailed: no dims
type CloudWatchRecorder struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchRecorder creates a recorder publishing under namespace. An
// empty namespace falls back to types.MetricNamespace.
func NewCloudWatchRecorder(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchRecorder {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	return &CloudWatchRecorder{client: client, namespace: namespace, logger: logger}
}

// RecordRequest records API latency and count for one request.
func (r *CloudWatchRecorder) RecordRequest(method, endpoint, status string, duration time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()

	dims := []cwtypes.Dimension{
		dim(types.DimEndpoint, endpoint),
		dim(types.DimMethod, method),
		dim(types.DimStatus, status),
	}
	r.put(ctx, "request",
		datum(types.MetricAPILatency, float64(duration.Milliseconds()), cwtypes.StandardUnitMilliseconds, dims...),
		datum(types.MetricAPIRequestCount, 1, cwtypes.StandardUnitCount, dims...),
	)
}

// RecordLookupFailure counts one degraded context lookup.
func (r *CloudWatchRecorder) RecordLookupFailure(ctx context.Context, lookup string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	r.put(ctx, "lookup failure",
		datum(types.MetricLookupFailure, 1, cwtypes.StandardUnitCount, dim(types.DimLookup, lookup)))
}

// RecordEvaluation records one evaluation: its duration, the alerts it
// produced per severity and the number of conditions it skipped.
func (r *CloudWatchRecorder) RecordEvaluation(ctx context.Context, alerts []types.Alert, skipped int, duration time.Duration) {
	data := []cwtypes.MetricDatum{
		datum(types.MetricEvaluation, float64(duration.Milliseconds()), cwtypes.StandardUnitMilliseconds),
		datum(types.MetricConditionsSkipped, float64(skipped), cwtypes.StandardUnitCount),
	}
	bySeverity := lo.CountValuesBy(alerts, func(a types.Alert) types.Severity { return a.Severity })
	for _, sev := range []types.Severity{types.SeverityHigh, types.SeverityMedium, types.SeverityLow, types.SeverityInfo} {
		if n := bySeverity[sev]; n > 0 {
			data = append(data, datum(types.MetricAlertsProduced, float64(n), cwtypes.StandardUnitCount,
				dim(types.DimSeverity, string(sev))))
		}
	}
	r.put(ctx, "evaluation", data...)
}

// RecordAudit records the valid and invalid tallies of both audited collections.
func (r *CloudWatchRecorder) RecordAudit(ctx context.Context, report types.AuditReport) {
	var data []cwtypes.MetricDatum
	for name, c := range map[string]types.CollectionReport{
		"conditions":     report.Conditions,
		"rule_documents": report.RuleDocuments,
	} {
		d := dim(types.DimCollection, name)
		data = append(data,
			datum(types.MetricAuditValid, float64(c.Valid), cwtypes.StandardUnitCount, d),
			datum(types.MetricAuditInvalid, float64(c.Invalid), cwtypes.StandardUnitCount, d),
		)
	}
	r.put(ctx, "audit", data...)
}

// RecordPublishFailure counts one alert hand-off that could not be queued.
func (r *CloudWatchRecorder) RecordPublishFailure(ctx context.Context) {
	r.put(ctx, "publish failure", datum(types.MetricAlertPublishFailed, 1, cwtypes.StandardUnitCount))
}

func (r *CloudWatchRecorder) put(ctx context.Context, what string, data ...cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(r.namespace),
		MetricData: data,
	}
	if _, err := r.client.PutMetricData(ctx, input); err != nil {
		r.logger.Error("failed to record "+what+" metric",
			"error", err.Error(),
			"datum_count", len(data),
		)
	}
}

func datum(name string, value float64, unit cwtypes.StandardUnit, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Dimensions: dims,
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}
