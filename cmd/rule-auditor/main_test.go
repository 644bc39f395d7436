package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"phoa/internal/types"
)

type stubAuditor struct {
	report types.AuditReport
	err    error
}

func (s stubAuditor) Audit(context.Context) (types.AuditReport, error) {
	return s.report, s.err
}

func scheduledEvent() events.CloudWatchEvent {
	return events.CloudWatchEvent{
		ID:         "evt-1",
		DetailType: "Scheduled Event",
		Source:     "aws.events",
		Time:       time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC),
	}
}

func TestHandle_ReturnsSummaryAndLogsInvalidItems(t *testing.T) {
	var buf bytes.Buffer
	h := &Handler{
		Auditor: stubAuditor{report: types.AuditReport{
			Conditions: types.CollectionReport{Total: 2, Valid: 1, Invalid: 1, Errors: []types.ItemReport{{
				Item:       "Q7",
				Violations: []types.Violation{{Field: "name", Code: types.ViolationMissing, Message: "name is required"}},
			}}},
			RuleDocuments: types.CollectionReport{Total: 1, Valid: 1},
			Summary:       "Conditions: 1/2 valid. Rule documents: 1/1 valid.",
		}},
		Logger: slog.New(slog.NewJSONHandler(&buf, nil)),
	}

	summary, err := h.Handle(context.Background(), scheduledEvent())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if summary != "Conditions: 1/2 valid. Rule documents: 1/1 valid." {
		t.Errorf("summary = %q", summary)
	}

	out := buf.String()
	if !strings.Contains(out, `"msg":"invalid condition"`) || !strings.Contains(out, `"item":"Q7"`) {
		t.Errorf("expected invalid condition to be logged, got: %s", out)
	}
	if !strings.Contains(out, `"event_id":"evt-1"`) {
		t.Errorf("expected event id in logs, got: %s", out)
	}
}

func TestHandle_StorageFailure(t *testing.T) {
	h := &Handler{
		Auditor: stubAuditor{err: types.NewAppError(types.ErrCodeInternalDB, "failed to list conditions", errors.New("timeout"))},
		Logger:  slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
	}
	if _, err := h.Handle(context.Background(), scheduledEvent()); err == nil {
		t.Fatal("expected the storage error to fail the invocation")
	}
}
