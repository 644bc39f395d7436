package types

import "time"

// AlertMessage is the SQS payload handed to the notification collaborator
// after an evaluation produces alerts. Delivery (push, email) happens
// downstream; this envelope carries everything needed to render it.
type AlertMessage struct {
	// Core Identity
	EvaluationID string `json:"evaluation_id"`
	UserID       string `json:"user_id,omitempty"`

	// Highest severity in Alerts, used for queue-side routing.
	TopSeverity Severity `json:"top_severity"`

	Alerts []Alert `json:"alerts"`

	// Observability
	TraceID     string    `json:"trace_id"`
	GeneratedAt time.Time `json:"generated_at"`
}
