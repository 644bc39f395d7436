package types

// Telemetry metric names for CloudWatch.
// All components MUST use these constants.
const (
	// Metric Names
	MetricAPILatency         = "APILatency"
	MetricAPIRequestCount    = "APIRequestCount"
	MetricEvaluation         = "Evaluation"
	MetricAlertsProduced     = "AlertsProduced"
	MetricConditionsSkipped  = "ConditionsSkipped"
	MetricLookupFailure      = "ContextLookupFailure"
	MetricAuditValid         = "AuditValid"
	MetricAuditInvalid       = "AuditInvalid"
	MetricAlertPublishFailed = "AlertPublishFailed"

	// Dimension Keys
	DimEndpoint   = "Endpoint"
	DimMethod     = "Method"
	DimStatus     = "Status"
	DimSeverity   = "Severity"
	DimLookup     = "Lookup"
	DimCollection = "Collection"

	// Metric Namespace
	MetricNamespace = "PhoA"
)
