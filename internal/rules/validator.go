// Package rules checks condition records and rule documents against the sensor
// vocabulary and converts validated records into typed values.
//
// Validation works on decoded JSON (map[string]any) so a malformed record can
// be reported field by field instead of failing at the first type error. The
// package performs no I/O.
package rules

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"phoa/internal/types"
)

// Wire field names.
const (
	fieldID                = "id"
	fieldName              = "name"
	fieldDescription       = "description"
	fieldTrigger           = "trigger"
	fieldImage             = "image"
	fieldPossibleTreatment = "possibleTreatment"

	fieldPhobiaID    = "phobiaId"
	fieldPhobiaName  = "phobiaName"
	fieldMainTrigger = "mainTrigger"
	fieldSensorRules = "sensorRules"
	fieldGeneratedAt = "generatedAt"

	fieldType     = "@type"
	fieldValue    = "value"
	fieldUnitText = "unitText"
)

// Validator checks records against the vocabulary. It is safe for concurrent
// use.
type Validator struct {
	expectedCount int
	now           func() time.Time
}

// NewValidator returns a validator that requires expectedCount sensor rules per
// document. A non-positive count selects the vocabulary size. A count that
// differs from the vocabulary size is honored but logged, because documents
// produced under it cannot carry one rule per signal.
func NewValidator(expectedCount int, logger *slog.Logger) *Validator {
	if expectedCount <= 0 {
		expectedCount = len(types.SignalOrder)
	}
	if expectedCount != len(types.SignalOrder) && logger != nil {
		logger.Warn("expected rule count differs from vocabulary size",
			"expected_count", expectedCount,
			"vocabulary_size", len(types.SignalOrder),
		)
	}
	return &Validator{expectedCount: expectedCount, now: time.Now}
}

// ExpectedCount returns the number of sensor rules a valid document carries.
func (v *Validator) ExpectedCount() int {
	return v.expectedCount
}

// ValidateCondition checks a catalog record. An empty result means valid.
func (v *Validator) ValidateCondition(record map[string]any) []types.Violation {
	var out violations

	out.requireString(record, fieldID, fieldID)
	if name, ok := out.requireString(record, fieldName, fieldName); ok {
		if utf8.RuneCountInString(strings.TrimSpace(name)) < types.MinConditionNameLength {
			out.add(fieldName, types.ViolationTooShort,
				fmt.Sprintf("must be at least %d characters", types.MinConditionNameLength))
		}
	}
	out.requireString(record, fieldDescription, fieldDescription)
	out.optionalString(record, fieldTrigger, fieldTrigger)
	out.optionalString(record, fieldImage, fieldImage)

	if raw, present := record[fieldPossibleTreatment]; present && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			out.wrongKind(fieldPossibleTreatment, "array of strings", raw)
		} else {
			for i, item := range items {
				if _, ok := item.(string); !ok {
					out.wrongKind(fmt.Sprintf("%s[%d]", fieldPossibleTreatment, i), "string", item)
				}
			}
		}
	}

	return out.list()
}

// ValidateRuleDocument checks a rule document. Every problem is reported; an
// entry with an unrecognized signal name is flagged once and not inspected
// further.
func (v *Validator) ValidateRuleDocument(doc map[string]any) []types.Violation {
	var out violations

	out.requireString(doc, fieldPhobiaID, fieldPhobiaID)
	out.requireString(doc, fieldPhobiaName, fieldPhobiaName)
	out.optionalString(doc, fieldMainTrigger, fieldMainTrigger)
	out.optionalString(doc, fieldGeneratedAt, fieldGeneratedAt)

	raw, present := doc[fieldSensorRules]
	if !present || raw == nil {
		out.add(fieldSensorRules, types.ViolationMissing, "required field is missing")
		return out.list()
	}
	entries, ok := raw.([]any)
	if !ok {
		out.wrongKind(fieldSensorRules, "array", raw)
		return out.list()
	}

	if len(entries) != v.expectedCount {
		out.add(fieldSensorRules, types.ViolationCountMismatch,
			fmt.Sprintf("expected %d entries, got %d", v.expectedCount, len(entries)))
	}

	seen := make(map[types.Signal]int, len(entries))
	for i, entry := range entries {
		v.checkEntry(&out, i, entry, seen)
	}

	return out.list()
}

func (v *Validator) checkEntry(out *violations, i int, entry any, seen map[types.Signal]int) {
	path := fmt.Sprintf("%s[%d]", fieldSensorRules, i)
	obj, ok := entry.(map[string]any)
	if !ok {
		out.wrongKind(path, "object", entry)
		return
	}

	if marker, present := obj[fieldType]; !present || marker == nil {
		out.add(path+"."+fieldType, types.ViolationMissing, "required field is missing")
	} else if s, ok := marker.(string); !ok || s != types.PropertyValueMarker {
		out.add(path+"."+fieldType, types.ViolationBadMarker,
			fmt.Sprintf("must equal %q", types.PropertyValueMarker))
	}

	out.optionalString(obj, fieldUnitText, path+"."+fieldUnitText)

	name, ok := out.requireString(obj, fieldName, path+"."+fieldName)
	if !ok {
		return
	}
	meta, known := types.LookupSignal(name)
	if !known {
		out.add(path+"."+fieldName, types.ViolationUnknownSignal,
			fmt.Sprintf("%q is not a recognized signal", name))
		return
	}
	if first, dup := seen[meta.Name]; dup {
		out.add(path+"."+fieldName, types.ViolationDuplicateSignal,
			fmt.Sprintf("%s already defined at %s[%d]", name, fieldSensorRules, first))
	} else {
		seen[meta.Name] = i
	}

	rawValue, present := obj[fieldValue]
	if !present {
		out.add(path+"."+fieldValue, types.ViolationMissing, "required field is missing (use null for irrelevant signals)")
		return
	}
	value, err := types.ValueFromAny(rawValue)
	if err != nil {
		out.wrongKind(path+"."+fieldValue, meta.KindName, rawValue)
		return
	}
	if !meta.AdmitsKind(value) {
		out.wrongKind(path+"."+fieldValue, meta.KindName, rawValue)
		return
	}
	if err := meta.Admits(value); err != nil {
		out.add(path+"."+fieldValue, types.ViolationOutOfDomain, err.Error())
	}
}

// violations accumulates findings in check order.
type violations []types.Violation

func (vs *violations) add(field string, code types.ViolationCode, msg string) {
	*vs = append(*vs, types.Violation{Field: field, Code: code, Message: msg})
}

func (vs *violations) wrongKind(field, want string, got any) {
	vs.add(field, types.ViolationWrongKind, fmt.Sprintf("expected %s, got %s", want, types.KindOfAny(got)))
}

// requireString reports a missing, null, empty or non-string field.
func (vs *violations) requireString(obj map[string]any, key, path string) (string, bool) {
	raw, present := obj[key]
	if !present || raw == nil {
		vs.add(path, types.ViolationMissing, "required field is missing")
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		vs.wrongKind(path, "string", raw)
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		vs.add(path, types.ViolationMissing, "required field is empty")
		return "", false
	}
	return s, true
}

// optionalString reports a present, non-null field that is not a string.
func (vs *violations) optionalString(obj map[string]any, key, path string) {
	raw, present := obj[key]
	if !present || raw == nil {
		return
	}
	if _, ok := raw.(string); !ok {
		vs.wrongKind(path, "string", raw)
	}
}

func (vs violations) list() []types.Violation {
	if len(vs) == 0 {
		return nil
	}
	return vs
}
