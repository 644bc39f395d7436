// Package evaluator decides which conditions a context snapshot activates.
//
// Two channels are evaluated independently per condition:
//
//   - sensor: the condition's rule document is compared signal by signal
//     against the snapshot. It fires when at least one non-null rule matches
//     and no rule with an available reading contradicts it. Signals missing
//     from the snapshot are skipped.
//   - text: reported triggers and group-message texts are matched against
//     the condition's trigger phrase.
//
// The evaluator performs no I/O and keeps no state between calls.
package evaluator

import (
	"fmt"
	"log/slog"
	"math"

	"phoa/internal/types"
)

// Defaults for Config.
const (
	DefaultTolerance        = 0.15
	DefaultRestingHeartRate = 100
)

// Config controls matching policy.
type Config struct {
	// Tolerance is the numeric match band as a fraction of the signal's
	// domain width.
	Tolerance float64
	// RestingHeartRate is the baseline at or above which a heart_rate reading
	// corroborates a sensor match.
	RestingHeartRate float64
}

// Subject is one condition to evaluate. Doc is nil when the caller opted to
// evaluate a condition without a usable rule document; only the text channel
// can then fire.
type Subject struct {
	Condition *types.Condition
	Doc       *types.RuleDocument
}

// Candidate is an activated condition before ranking.
type Candidate struct {
	ConditionID   string
	ConditionName string
	Severity      types.Severity
	Channels      []types.AlertChannel
	// Matched lists the sensor rules that matched, in vocabulary order.
	Matched []types.SensorRule
	// Mentioned is the trigger text that activated the text channel.
	Mentioned string
	Reasons   []string
}

// Evaluator applies the matching policy. It is safe for concurrent use.
type Evaluator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Evaluator. Non-positive config values select the defaults.
func New(cfg Config, logger *slog.Logger) *Evaluator {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.RestingHeartRate <= 0 {
		cfg.RestingHeartRate = DefaultRestingHeartRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (e *Evaluator) Config() Config { return e.cfg }

// Evaluate returns one candidate per activated subject, in subject order.
// Snapshot messages count as triggers alongside the explicit ones.
func (e *Evaluator) Evaluate(snap *types.Snapshot, subjects []Subject, triggers []string) []Candidate {
	texts := make([]string, 0, len(triggers)+len(snapMessages(snap)))
	texts = append(texts, triggers...)
	texts = append(texts, snapMessages(snap)...)

	var out []Candidate
	for _, s := range subjects {
		if s.Condition == nil {
			continue
		}
		phrase := s.Condition.TriggerPhrase(s.Doc)
		if s.Doc == nil {
			e.logger.Debug("no rule document; text channel only", "condition_id", s.Condition.ID)
		}
		if c, ok := e.evaluateOne(snap, s, phrase, texts); ok {
			out = append(out, c)
		}
	}
	return out
}

func (e *Evaluator) evaluateOne(snap *types.Snapshot, s Subject, phrase string, texts []string) (Candidate, bool) {
	matched, sensorFired := e.matchSensors(snap, s.Doc)
	mention, textFired := MatchText(phrase, texts)
	if !sensorFired && !textFired {
		return Candidate{}, false
	}

	c := Candidate{
		ConditionID:   s.Condition.ID,
		ConditionName: s.Condition.DisplayName(),
		Severity:      types.SeverityMedium,
	}
	if sensorFired {
		c.Channels = append(c.Channels, types.ChannelSensor)
		c.Matched = matched
		for _, r := range matched {
			c.Reasons = append(c.Reasons, fmt.Sprintf("%s=%s", r.Name, readingOf(snap, r.Name)))
		}
		if e.heartRateElevated(snap, s.Doc) {
			c.Severity = types.SeverityHigh
			if !containsSignal(matched, types.SignalHeartRate) {
				c.Reasons = append(c.Reasons, fmt.Sprintf("%s=%s", types.SignalHeartRate, readingOf(snap, types.SignalHeartRate)))
			}
		}
	}
	if textFired {
		c.Channels = append(c.Channels, types.ChannelText)
		c.Mentioned = mention
		c.Reasons = append(c.Reasons, "mentioned: "+mention)
	}
	return c, true
}

// matchSensors compares every non-null rule with an available reading. It
// reports the matching rules and whether the sensor channel fired.
func (e *Evaluator) matchSensors(snap *types.Snapshot, doc *types.RuleDocument) ([]types.SensorRule, bool) {
	if doc == nil {
		return nil, false
	}
	var matched []types.SensorRule
	for _, sig := range types.SignalOrder {
		target, ok := doc.Target(sig)
		if !ok {
			continue
		}
		reading, ok := snap.Get(sig)
		if !ok {
			continue
		}
		if !e.Matches(sig, target, reading) {
			return nil, false
		}
		matched = append(matched, types.NewSensorRule(sig, target))
	}
	return matched, len(matched) > 0
}

// Matches reports whether a reading satisfies a rule target. Enumerated and
// boolean signals need equality; numeric signals match within the tolerance
// band.
func (e *Evaluator) Matches(sig types.Signal, target, reading types.Value) bool {
	meta, ok := types.Vocabulary[sig]
	if !ok {
		return false
	}
	if meta.Kind != types.KindNumber {
		return target.Equal(reading)
	}
	t, ok1 := target.AsNumber()
	r, ok2 := reading.AsNumber()
	if !ok1 || !ok2 {
		return false
	}
	return math.Abs(r-t) <= e.cfg.Tolerance*meta.Width()
}

// heartRateElevated reports whether the snapshot's heart rate reaches the
// resting baseline, or the rule's own heart_rate target when one is set.
func (e *Evaluator) heartRateElevated(snap *types.Snapshot, doc *types.RuleDocument) bool {
	v, ok := snap.Get(types.SignalHeartRate)
	if !ok {
		return false
	}
	hr, ok := v.AsNumber()
	if !ok {
		return false
	}
	if hr >= e.cfg.RestingHeartRate {
		return true
	}
	if t, ok := doc.Target(types.SignalHeartRate); ok {
		if target, ok := t.AsNumber(); ok && hr >= target {
			return true
		}
	}
	return false
}

func readingOf(snap *types.Snapshot, sig types.Signal) string {
	v, _ := snap.Get(sig)
	return v.String()
}

func containsSignal(rules []types.SensorRule, sig types.Signal) bool {
	for _, r := range rules {
		if r.Name == sig {
			return true
		}
	}
	return false
}

func snapMessages(snap *types.Snapshot) []string {
	if snap == nil {
		return nil
	}
	return snap.Messages
}
