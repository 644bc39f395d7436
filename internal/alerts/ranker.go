// Package alerts turns evaluator candidates and wall-clock notices into the
// ordered, de-duplicated alert list returned to callers.
package alerts

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"phoa/internal/evaluator"
	"phoa/internal/types"
)

// Ranker merges, orders and decorates alerts. It holds no per-call state.
type Ranker struct {
	newID func() string
}

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithIDGenerator overrides the alert ID source.
func WithIDGenerator(fn func() string) RankerOption {
	return func(r *Ranker) { r.newID = fn }
}

// NewRanker creates a Ranker that stamps alerts with random UUIDs.
func NewRanker(opts ...RankerOption) *Ranker {
	r := &Ranker{newID: func() string { return uuid.NewString() }}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank merges candidates to at most one alert per condition, appends the
// informational notices and orders the result by severity (descending),
// display name, then condition ID. recs may be nil.
func (r *Ranker) Rank(candidates []evaluator.Candidate, notices []Notice, recs Recommender, now time.Time) []types.Alert {
	merged := Merge(candidates)

	out := make([]types.Alert, 0, len(merged)+len(notices))
	for _, c := range merged {
		a := types.Alert{
			ID:            r.newID(),
			ConditionID:   c.ConditionID,
			ConditionName: c.ConditionName,
			Severity:      c.Severity,
			Channels:      c.Channels,
			Message:       Message(c.ConditionName, c.Reasons),
			Reasons:       c.Reasons,
			CreatedAt:     now,
		}
		if recs != nil {
			a.Recommendations = recs.Recommend(c.ConditionID, c.ConditionName)
		}
		if a.Recommendations == nil {
			a.Recommendations = []string{}
		}
		out = append(out, a)
	}
	for _, n := range notices {
		out = append(out, types.Alert{
			ID:              r.newID(),
			ConditionName:   n.Title,
			Severity:        n.Severity,
			Channels:        []types.AlertChannel{types.ChannelTime},
			Message:         n.Message,
			Recommendations: []string{},
			CreatedAt:       now,
		})
	}

	slices.SortStableFunc(out, compareAlerts)
	return out
}

func compareAlerts(a, b types.Alert) int {
	if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
		return c
	}
	if c := cmp.Compare(strings.ToLower(a.ConditionName), strings.ToLower(b.ConditionName)); c != 0 {
		return c
	}
	return cmp.Compare(a.ConditionID, b.ConditionID)
}

// Merge collapses candidates sharing a condition ID into one, in first-seen
// order. The merged candidate keeps the higher severity and the union of
// channels and reasons.
func Merge(candidates []evaluator.Candidate) []evaluator.Candidate {
	index := make(map[string]int, len(candidates))
	var out []evaluator.Candidate
	for _, c := range candidates {
		i, seen := index[c.ConditionID]
		if !seen {
			index[c.ConditionID] = len(out)
			c.Channels = slices.Clone(c.Channels)
			c.Reasons = slices.Clone(c.Reasons)
			out = append(out, c)
			continue
		}
		m := &out[i]
		m.Severity = m.Severity.Max(c.Severity)
		m.Channels = lo.Uniq(append(m.Channels, c.Channels...))
		m.Reasons = lo.Uniq(append(m.Reasons, c.Reasons...))
		m.Matched = lo.UniqBy(append(m.Matched, c.Matched...), func(r types.SensorRule) types.Signal { return r.Name })
		if m.Mentioned == "" {
			m.Mentioned = c.Mentioned
		}
	}
	return out
}

// Message renders the alert text: "<name> trigger detected (reason; ...)".
func Message(name string, reasons []string) string {
	msg := fmt.Sprintf("%s trigger detected", name)
	if len(reasons) > 0 {
		msg += " (" + strings.Join(reasons, "; ") + ")"
	}
	return msg
}
