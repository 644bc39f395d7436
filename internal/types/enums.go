package types

// Severity is the ordinal urgency of an alert.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns the ordinal position of the severity; higher is more urgent.
// Unknown severities rank below info.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Max returns the more urgent of two severities.
func (s Severity) Max(o Severity) Severity {
	if o.Rank() > s.Rank() {
		return o
	}
	return s
}

// AlertChannel identifies how an alert was activated.
type AlertChannel string

const (
	ChannelSensor AlertChannel = "sensor"
	ChannelText   AlertChannel = "text"
	ChannelTime   AlertChannel = "time"
)

// TimeOfDay buckets the local hour.
type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "Morning"
	TimeAfternoon TimeOfDay = "Afternoon"
	TimeEvening   TimeOfDay = "Evening"
	TimeNight     TimeOfDay = "Night"
)
