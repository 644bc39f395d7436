package types

import (
	"fmt"
	"time"
)

// Validation constraint constants.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0

	// MinConditionNameLength is the shortest acceptable condition display name.
	MinConditionNameLength = 2
	// MaxConditionsPerEvaluation caps the number of condition identifiers a
	// single evaluation call may request.
	MaxConditionsPerEvaluation = 50
)

// ViolationCode classifies a schema violation.
type ViolationCode string

const (
	ViolationMissing         ViolationCode = "missing"
	ViolationWrongKind       ViolationCode = "wrong_kind"
	ViolationTooShort        ViolationCode = "too_short"
	ViolationCountMismatch   ViolationCode = "count_mismatch"
	ViolationBadMarker       ViolationCode = "bad_marker"
	ViolationUnknownSignal   ViolationCode = "unknown_signal"
	ViolationDuplicateSignal ViolationCode = "duplicate_signal"
	ViolationOutOfDomain     ViolationCode = "out_of_domain"
)

// Violation describes one structural or semantic problem with a record.
// Field is a path such as "name" or "sensorRules[3].@type".
type Violation struct {
	Field   string        `json:"field"`
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Field, v.Message, v.Code)
}

// ItemReport lists the violations found for one audited item.
type ItemReport struct {
	Item       string      `json:"item"`
	Violations []Violation `json:"violations"`
}

// CollectionReport tallies one audited collection.
type CollectionReport struct {
	Total   int          `json:"total"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
	Errors  []ItemReport `json:"errors"`
}

// AuditReport is the structured pass/fail report produced by a batch audit.
type AuditReport struct {
	Conditions    CollectionReport `json:"conditions"`
	RuleDocuments CollectionReport `json:"ruleDocuments"`
	Summary       string           `json:"summary"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}

// ValidateCoordinates checks that a coordinate pair is within range.
func ValidateCoordinates(lat, lon float64) error {
	if lat < MinLat || lat > MaxLat {
		return NewAppError(ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %.4f outside [%.0f, %.0f]", lat, MinLat, MaxLat), nil)
	}
	if lon < MinLon || lon > MaxLon {
		return NewAppError(ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude %.4f outside [%.0f, %.0f]", lon, MinLon, MaxLon), nil)
	}
	return nil
}
