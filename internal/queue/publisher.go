// Package queue hands evaluation results to downstream delivery workers over
// SQS.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"phoa/internal/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// AlertPublisher sends one AlertMessage per evaluation that produced alerts.
type AlertPublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
	now      func() time.Time
}

// NewAlertPublisher creates a publisher targeting queueURL.
func NewAlertPublisher(client SQSSender, queueURL string, logger *slog.Logger) *AlertPublisher {
	return &AlertPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
		now:      time.Now,
	}
}

// Publish enqueues the alerts of one evaluation. An empty list is not sent.
func (p *AlertPublisher) Publish(ctx context.Context, evaluationID, userID string, alerts []types.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	top := types.SeverityInfo
	for _, a := range alerts {
		top = top.Max(a.Severity)
	}

	msg := types.AlertMessage{
		EvaluationID: evaluationID,
		UserID:       userID,
		TopSeverity:  top,
		Alerts:       alerts,
		TraceID:      uuid.NewString(),
		GeneratedAt:  p.now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal AlertMessage: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"severity": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(top)),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return types.NewAppError(types.ErrCodeInternalQueue,
			fmt.Sprintf("failed to send alerts to %s", p.queueURL), err)
	}

	p.logger.InfoContext(ctx, "alert message sent",
		"queue_url", p.queueURL,
		"evaluation_id", evaluationID,
		"trace_id", msg.TraceID,
		"alert_count", len(alerts),
		"top_severity", string(top),
	)
	return nil
}
