package metrics

import (
	"context"
	"time"

	"phoa/internal/types"
)

// Nop discards every metric. Used when metrics are disabled and in tests.
type Nop struct{}

func (Nop) RecordRequest(string, string, string, time.Duration) {}
func (Nop) RecordLookupFailure(context.Context, string) {}
func (Nop) RecordEvaluation(context.Context, []types.Alert, int, time.Duration) {}
func (Nop) RecordAudit(context.Context, types.AuditReport) {}
func (Nop) RecordPublishFailure(context.Context) {}
