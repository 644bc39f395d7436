package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoa/internal/types"
)

// --- Mock SQS Client ---

// mockSQSSender captures SendMessage calls for test assertions.
type mockSQSSender struct {
	calls []*sqs.SendMessageInput
	err   error
}

func (m *mockSQSSender) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.calls = append(m.calls, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

const testQueueURL = "https://sqs.eu-central-1.amazonaws.com/123456789/phoa-alerts"

func newTestPublisher(m *mockSQSSender) *AlertPublisher {
	p := NewAlertPublisher(m, testQueueURL, slog.Default())
	p.now = func() time.Time { return time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestPublish_SendsEnvelope(t *testing.T) {
	m := &mockSQSSender{}
	alerts := []types.Alert{
		{ID: "a1", ConditionName: "Arachnophobia", Severity: types.SeverityMedium},
		{ID: "a2", ConditionName: "Nosocomephobia", Severity: types.SeverityHigh},
	}

	require.NoError(t, newTestPublisher(m).Publish(context.Background(), "eval-1", "u-7", alerts))
	require.Len(t, m.calls, 1)

	in := m.calls[0]
	assert.Equal(t, testQueueURL, *in.QueueUrl)
	assert.Equal(t, "high", *in.MessageAttributes["severity"].StringValue)

	var msg types.AlertMessage
	require.NoError(t, json.Unmarshal([]byte(*in.MessageBody), &msg))
	assert.Equal(t, "eval-1", msg.EvaluationID)
	assert.Equal(t, "u-7", msg.UserID)
	assert.Equal(t, types.SeverityHigh, msg.TopSeverity)
	assert.Len(t, msg.Alerts, 2)
	assert.NotEmpty(t, msg.TraceID)
	assert.Equal(t, 2026, msg.GeneratedAt.Year())
}

func TestPublish_EmptyIsNoop(t *testing.T) {
	m := &mockSQSSender{}
	require.NoError(t, newTestPublisher(m).Publish(context.Background(), "eval-1", "", nil))
	assert.Empty(t, m.calls)
}

func TestPublish_SQSFailure(t *testing.T) {
	m := &mockSQSSender{err: errors.New("throttled")}
	err := newTestPublisher(m).Publish(context.Background(), "eval-1", "",
		[]types.Alert{{ID: "a1", Severity: types.SeverityInfo}})

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalQueue, appErr.Code)
	assert.ErrorContains(t, err, "throttled")
}
