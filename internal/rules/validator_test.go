package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoa/internal/types"
)

const hospitalDocJSON = `{
	"phobiaId": "nosocomephobia",
	"phobiaName": "Nosocomephobia",
	"mainTrigger": "hospitals",
	"sensorRules": [
		{"@type": "PropertyValue", "name": "location_type", "value": "hospital"},
		{"@type": "PropertyValue", "name": "weather_code", "value": null},
		{"@type": "PropertyValue", "name": "temperature", "value": null},
		{"@type": "PropertyValue", "name": "altitude", "value": null},
		{"@type": "PropertyValue", "name": "heart_rate", "value": 110, "unitText": "BPM"},
		{"@type": "PropertyValue", "name": "noise_level", "value": null},
		{"@type": "PropertyValue", "name": "is_night", "value": false},
		{"@type": "PropertyValue", "name": "season", "value": "Spring"}
	]
}`

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func rulesOf(doc map[string]any) []any {
	return doc["sensorRules"].([]any)
}

func entry(doc map[string]any, i int) map[string]any {
	return rulesOf(doc)[i].(map[string]any)
}

func fieldsOf(vs []types.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Field
	}
	return out
}

func newTestValidator() *Validator {
	return NewValidator(len(types.SignalOrder), nil)
}

func TestValidateRuleDocument_WellFormed(t *testing.T) {
	v := newTestValidator()
	assert.Empty(t, v.ValidateRuleDocument(decodeJSON(t, hospitalDocJSON)))
}

func TestValidateRuleDocument_AllNullIsValid(t *testing.T) {
	doc := decodeJSON(t, hospitalDocJSON)
	for _, e := range rulesOf(doc) {
		e.(map[string]any)["value"] = nil
	}
	assert.Empty(t, newTestValidator().ValidateRuleDocument(doc))
}

func TestValidateRuleDocument_MissingRequiredFields(t *testing.T) {
	for _, field := range []string{"phobiaId", "phobiaName", "sensorRules"} {
		t.Run(field, func(t *testing.T) {
			doc := decodeJSON(t, hospitalDocJSON)
			delete(doc, field)

			vs := newTestValidator().ValidateRuleDocument(doc)
			require.NotEmpty(t, vs)
			assert.Contains(t, fieldsOf(vs), field)
			for _, v := range vs {
				if v.Field == field {
					assert.Equal(t, types.ViolationMissing, v.Code)
				}
			}
		})
	}
}

func TestValidateRuleDocument_MissingEntryFields(t *testing.T) {
	for _, field := range []string{"@type", "name", "value"} {
		t.Run(field, func(t *testing.T) {
			doc := decodeJSON(t, hospitalDocJSON)
			delete(entry(doc, 2), field)

			vs := newTestValidator().ValidateRuleDocument(doc)
			assert.Contains(t, fieldsOf(vs), "sensorRules[2]."+field)
		})
	}
}

func TestValidateRuleDocument_UnknownSignalFlagsOnlyThatEntry(t *testing.T) {
	doc := decodeJSON(t, hospitalDocJSON)
	entry(doc, 3)["name"] = "pollen_level"

	vs := newTestValidator().ValidateRuleDocument(doc)
	require.Len(t, vs, 1)
	assert.Equal(t, "sensorRules[3].name", vs[0].Field)
	assert.Equal(t, types.ViolationUnknownSignal, vs[0].Code)
}

func TestValidateRuleDocument_UnknownSignalAppended(t *testing.T) {
	doc := decodeJSON(t, hospitalDocJSON)
	doc["sensorRules"] = append(rulesOf(doc), map[string]any{
		"@type": "PropertyValue", "name": "humidity", "value": 40.0,
	})

	vs := newTestValidator().ValidateRuleDocument(doc)
	var entryViolations []types.Violation
	for _, v := range vs {
		if strings.HasPrefix(v.Field, "sensorRules[") {
			entryViolations = append(entryViolations, v)
		}
	}
	require.Len(t, entryViolations, 1)
	assert.Equal(t, "sensorRules[8].name", entryViolations[0].Field)
	assert.Contains(t, vs, types.Violation{
		Field:   "sensorRules",
		Code:    types.ViolationCountMismatch,
		Message: "expected 8 entries, got 9",
	})
}

func TestValidateRuleDocument_EntryViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
		field  string
		code   types.ViolationCode
	}{
		{
			name:   "bad marker",
			mutate: func(doc map[string]any) { entry(doc, 0)["@type"] = "Thing" },
			field:  "sensorRules[0].@type",
			code:   types.ViolationBadMarker,
		},
		{
			name:   "duplicate signal",
			mutate: func(doc map[string]any) { entry(doc, 1)["name"] = "location_type" },
			field:  "sensorRules[1].name",
			code:   types.ViolationDuplicateSignal,
		},
		{
			name:   "number for enum text",
			mutate: func(doc map[string]any) { entry(doc, 0)["value"] = 3.0 },
			field:  "sensorRules[0].value",
			code:   types.ViolationWrongKind,
		},
		{
			name:   "label outside enum",
			mutate: func(doc map[string]any) { entry(doc, 0)["value"] = "casino" },
			field:  "sensorRules[0].value",
			code:   types.ViolationOutOfDomain,
		},
		{
			name:   "weather code outside set",
			mutate: func(doc map[string]any) { entry(doc, 1)["value"] = 2.0 },
			field:  "sensorRules[1].value",
			code:   types.ViolationOutOfDomain,
		},
		{
			name:   "heart rate out of range",
			mutate: func(doc map[string]any) { entry(doc, 4)["value"] = 250.0 },
			field:  "sensorRules[4].value",
			code:   types.ViolationOutOfDomain,
		},
		{
			name:   "string for bool",
			mutate: func(doc map[string]any) { entry(doc, 6)["value"] = "true" },
			field:  "sensorRules[6].value",
			code:   types.ViolationWrongKind,
		},
		{
			name:   "object value",
			mutate: func(doc map[string]any) { entry(doc, 2)["value"] = map[string]any{"min": 1.0} },
			field:  "sensorRules[2].value",
			code:   types.ViolationWrongKind,
		},
		{
			name:   "entry not an object",
			mutate: func(doc map[string]any) { rulesOf(doc)[5] = "noise_level" },
			field:  "sensorRules[5]",
			code:   types.ViolationWrongKind,
		},
		{
			name:   "sensorRules not an array",
			mutate: func(doc map[string]any) { doc["sensorRules"] = map[string]any{} },
			field:  "sensorRules",
			code:   types.ViolationWrongKind,
		},
		{
			name:   "generatedAt not a string",
			mutate: func(doc map[string]any) { doc["generatedAt"] = 1712000000.0 },
			field:  "generatedAt",
			code:   types.ViolationWrongKind,
		},
		{
			name:   "too few entries",
			mutate: func(doc map[string]any) { doc["sensorRules"] = rulesOf(doc)[:7] },
			field:  "sensorRules",
			code:   types.ViolationCountMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decodeJSON(t, hospitalDocJSON)
			tt.mutate(doc)

			vs := newTestValidator().ValidateRuleDocument(doc)
			require.NotEmpty(t, vs)
			found := false
			for _, v := range vs {
				if v.Field == tt.field && v.Code == tt.code {
					found = true
				}
			}
			assert.True(t, found, "want %s on %s, got %v", tt.code, tt.field, vs)
		})
	}
}

func TestValidateRuleDocument_ReportsEveryProblem(t *testing.T) {
	doc := decodeJSON(t, hospitalDocJSON)
	delete(doc, "phobiaName")
	entry(doc, 0)["@type"] = "Thing"
	entry(doc, 4)["value"] = 20.0

	vs := newTestValidator().ValidateRuleDocument(doc)
	assert.Equal(t, []string{"phobiaName", "sensorRules[0].@type", "sensorRules[4].value"}, fieldsOf(vs))
}

func TestNewValidator_CountMismatchWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	v := NewValidator(7, logger)
	assert.Equal(t, 7, v.ExpectedCount())
	assert.Contains(t, buf.String(), "expected rule count differs from vocabulary size")

	buf.Reset()
	v = NewValidator(0, logger)
	assert.Equal(t, 8, v.ExpectedCount())
	assert.Empty(t, buf.String())
}

func TestNewValidator_SevenEntryDocuments(t *testing.T) {
	doc := decodeJSON(t, hospitalDocJSON)
	doc["sensorRules"] = rulesOf(doc)[:7]

	v := NewValidator(7, nil)
	assert.Empty(t, v.ValidateRuleDocument(doc))
}

func TestValidateCondition(t *testing.T) {
	valid := func() map[string]any {
		return map[string]any{
			"id":                "arachnophobia",
			"name":              "Arachnophobia",
			"description":       "Fear of spiders",
			"trigger":           "spiders",
			"possibleTreatment": []any{"Exposure therapy", "CBT"},
		}
	}
	v := newTestValidator()

	assert.Empty(t, v.ValidateCondition(valid()))

	tests := []struct {
		name   string
		mutate func(map[string]any)
		field  string
		code   types.ViolationCode
	}{
		{"missing id", func(m map[string]any) { delete(m, "id") }, "id", types.ViolationMissing},
		{"null description", func(m map[string]any) { m["description"] = nil }, "description", types.ViolationMissing},
		{"numeric name", func(m map[string]any) { m["name"] = 42.0 }, "name", types.ViolationWrongKind},
		{"short name", func(m map[string]any) { m["name"] = "A" }, "name", types.ViolationTooShort},
		{"trigger not string", func(m map[string]any) { m["trigger"] = []any{"spiders"} }, "trigger", types.ViolationWrongKind},
		{"image not string", func(m map[string]any) { m["image"] = true }, "image", types.ViolationWrongKind},
		{"treatment not array", func(m map[string]any) { m["possibleTreatment"] = "CBT" }, "possibleTreatment", types.ViolationWrongKind},
		{"treatment item not string", func(m map[string]any) { m["possibleTreatment"] = []any{"CBT", 3.0} }, "possibleTreatment[1]", types.ViolationWrongKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid()
			tt.mutate(rec)
			vs := v.ValidateCondition(rec)
			require.Len(t, vs, 1, "violations: %v", vs)
			assert.Equal(t, tt.field, vs[0].Field)
			assert.Equal(t, tt.code, vs[0].Code)
		})
	}
}

func TestValidateCondition_OptionalFieldsMayBeAbsent(t *testing.T) {
	rec := map[string]any{"id": "x1", "name": "Acrophobia", "description": "Fear of heights"}
	assert.Empty(t, newTestValidator().ValidateCondition(rec))
}

func ExampleValidator_ValidateRuleDocument() {
	v := NewValidator(8, nil)
	vs := v.ValidateRuleDocument(map[string]any{"phobiaId": "x"})
	for _, violation := range vs {
		fmt.Println(violation)
	}
	// Output:
	// phobiaName: required field is missing (missing)
	// sensorRules: required field is missing (missing)
}
