package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// GroupMessage is a free-text report from a group member. Only Text is
// consumed by evaluation.
type GroupMessage struct {
	Text   string `json:"text"`
	UserID string `json:"userId,omitempty"`
}

// RawContext is the heterogeneous, optional input from which a Snapshot is
// built. Signal names appear as top-level keys alongside coordinates, e.g.
//
//	{"latitude": 44.43, "longitude": 26.1, "heart_rate": 110, "location_type": "hospital"}
//
// Keys that are neither known fields nor signal names are collected in Extra.
type RawContext struct {
	Latitude  *float64
	Longitude *float64
	Timestamp *time.Time
	Timezone  string
	Overrides map[Signal]Value
	Extra     []string
}

var rawContextFields = map[string]struct{}{
	"latitude": {}, "longitude": {}, "timestamp": {}, "timezone": {},
}

// UnmarshalJSON splits the flat context object into coordinates, clock
// hints and per-signal overrides.
func (rc *RawContext) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	out := RawContext{}
	for key, raw := range fields {
		switch key {
		case "latitude":
			if err := json.Unmarshal(raw, &out.Latitude); err != nil {
				return fmt.Errorf("latitude: %w", err)
			}
		case "longitude":
			if err := json.Unmarshal(raw, &out.Longitude); err != nil {
				return fmt.Errorf("longitude: %w", err)
			}
		case "timestamp":
			if err := json.Unmarshal(raw, &out.Timestamp); err != nil {
				return fmt.Errorf("timestamp: %w", err)
			}
		case "timezone":
			if err := json.Unmarshal(raw, &out.Timezone); err != nil {
				return fmt.Errorf("timezone: %w", err)
			}
		default:
			if _, ok := Vocabulary[Signal(key)]; !ok {
				out.Extra = append(out.Extra, key)
				continue
			}
			var v Value
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if v.IsNull() {
				continue
			}
			if out.Overrides == nil {
				out.Overrides = make(map[Signal]Value)
			}
			out.Overrides[Signal(key)] = v
		}
	}
	*rc = out
	return nil
}

// MarshalJSON renders the flat form accepted by UnmarshalJSON.
func (rc RawContext) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(rc.Overrides)+len(rawContextFields))
	if rc.Latitude != nil {
		out["latitude"] = *rc.Latitude
	}
	if rc.Longitude != nil {
		out["longitude"] = *rc.Longitude
	}
	if rc.Timestamp != nil {
		out["timestamp"] = rc.Timestamp.Format(time.RFC3339)
	}
	if rc.Timezone != "" {
		out["timezone"] = rc.Timezone
	}
	for sig, v := range rc.Overrides {
		out[string(sig)] = v
	}
	return json.Marshal(out)
}

// HasCoordinates reports whether both latitude and longitude were supplied.
func (rc RawContext) HasCoordinates() bool {
	return rc.Latitude != nil && rc.Longitude != nil
}

// Snapshot is the normalized, request-scoped bundle of signal values used
// for one evaluation. Every vocabulary signal has an entry; absent signals
// hold a null Value.
type Snapshot struct {
	Signals       map[Signal]Value `json:"signals"`
	TimeOfDay     TimeOfDay        `json:"timeOfDay"`
	LocationLabel string           `json:"locationLabel,omitempty"`
	Messages      []string         `json:"messages,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
	Degraded      []string         `json:"degraded,omitempty"`
}

// NewSnapshot returns a snapshot with every signal explicitly absent.
func NewSnapshot(at time.Time) *Snapshot {
	s := &Snapshot{Signals: make(map[Signal]Value, len(SignalOrder)), Timestamp: at}
	for _, sig := range SignalOrder {
		s.Signals[sig] = Null()
	}
	return s
}

// Get returns the signal's value when it is present.
func (s *Snapshot) Get(sig Signal) (Value, bool) {
	if s == nil {
		return Null(), false
	}
	v, ok := s.Signals[sig]
	if !ok || v.IsNull() {
		return Null(), false
	}
	return v, true
}

// Set records a signal value. Setting a null Value marks it absent.
func (s *Snapshot) Set(sig Signal, v Value) {
	if s.Signals == nil {
		s.Signals = make(map[Signal]Value, len(SignalOrder))
	}
	s.Signals[sig] = v
}

// Alert is a single warning returned to the caller. Alerts are never
// mutated after the ranker emits them.
type Alert struct {
	ID              string         `json:"id"`
	ConditionID     string         `json:"conditionId,omitempty"`
	ConditionName   string         `json:"conditionName"`
	Severity        Severity       `json:"severity"`
	Channels        []AlertChannel `json:"channels"`
	Message         string         `json:"message"`
	Reasons         []string       `json:"reasons,omitempty"`
	Recommendations []string       `json:"recommendations"`
	CreatedAt       time.Time      `json:"createdAt"`
}
