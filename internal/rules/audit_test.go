package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoa/internal/types"
)

func TestAudit_TalliesBothCollections(t *testing.T) {
	v := newTestValidator()
	fixed := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return fixed }

	conditions := []map[string]any{
		{"id": "a1", "name": "Arachnophobia", "description": "Fear of spiders"},
		{"id": "a2", "name": "A", "description": "Too short"},
		{"name": "Nameless", "description": "no id"},
	}
	good := decodeJSON(t, hospitalDocJSON)
	bad := decodeJSON(t, hospitalDocJSON)
	bad["phobiaId"] = "broken"
	entry(bad, 0)["@type"] = "Thing"
	entry(bad, 1)["name"] = "humidity"

	report := v.Audit(conditions, []map[string]any{good, bad})

	assert.Equal(t, types.CollectionReport{
		Total: 3, Valid: 1, Invalid: 2,
		Errors: []types.ItemReport{
			{Item: "a2", Violations: []types.Violation{{Field: "name", Code: types.ViolationTooShort, Message: "must be at least 2 characters"}}},
			{Item: "#2", Violations: []types.Violation{{Field: "id", Code: types.ViolationMissing, Message: "required field is missing"}}},
		},
	}, report.Conditions)

	assert.Equal(t, 2, report.RuleDocuments.Total)
	assert.Equal(t, 1, report.RuleDocuments.Valid)
	require.Len(t, report.RuleDocuments.Errors, 1)
	assert.Equal(t, "broken", report.RuleDocuments.Errors[0].Item)
	assert.Len(t, report.RuleDocuments.Errors[0].Violations, 2, "audit must not stop at the first violation")

	assert.Equal(t, "Conditions: 1/3 valid. Rule documents: 1/2 valid.", report.Summary)
	assert.Equal(t, fixed, report.GeneratedAt)
}

func TestAudit_EmptyCollections(t *testing.T) {
	report := newTestValidator().Audit(nil, nil)
	assert.Equal(t, "Conditions: 0/0 valid. Rule documents: 0/0 valid.", report.Summary)
	assert.NotNil(t, report.Conditions.Errors)
	assert.NotNil(t, report.RuleDocuments.Errors)
}

func TestParseRuleDocument(t *testing.T) {
	v := newTestValidator()

	raw := decodeJSON(t, hospitalDocJSON)
	raw["generatedAt"] = "2026-03-14T09:00:00Z"
	doc, err := v.ParseRuleDocument(raw)
	require.NoError(t, err)

	assert.Equal(t, "nosocomephobia", doc.ConditionID)
	assert.Equal(t, "hospitals", doc.MainTrigger)
	require.NotNil(t, doc.GeneratedAt)
	assert.Equal(t, 2026, doc.GeneratedAt.Year())
	require.Len(t, doc.SensorRules, 8)

	target, ok := doc.Target(types.SignalLocationType)
	require.True(t, ok)
	assert.True(t, target.Equal(types.Text("hospital")))
	target, ok = doc.Target(types.SignalHeartRate)
	require.True(t, ok)
	assert.True(t, target.Equal(types.Number(110)))
	_, ok = doc.Target(types.SignalWeatherCode)
	assert.False(t, ok)
	assert.Equal(t, "BPM", doc.SensorRules[4].UnitText)
}

func TestParseRuleDocument_Invalid(t *testing.T) {
	raw := decodeJSON(t, hospitalDocJSON)
	entry(raw, 0)["value"] = "casino"

	_, err := newTestValidator().ParseRuleDocument(raw)
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeValidationRuleDocument, appErr.Code)
	vs, ok := appErr.Details["violations"].([]types.Violation)
	require.True(t, ok)
	assert.Equal(t, "sensorRules[0].value", vs[0].Field)
}

func TestDecodeRuleDocument_BadGeneratedAtDropped(t *testing.T) {
	raw := decodeJSON(t, hospitalDocJSON)
	raw["generatedAt"] = "last tuesday"
	doc, err := DecodeRuleDocument(raw)
	require.NoError(t, err)
	assert.Nil(t, doc.GeneratedAt)
}

func TestDecodeRuleDocument_UnknownSignal(t *testing.T) {
	raw := decodeJSON(t, hospitalDocJSON)
	entry(raw, 0)["name"] = "humidity"
	_, err := DecodeRuleDocument(raw)
	assert.ErrorContains(t, err, "humidity")
}
