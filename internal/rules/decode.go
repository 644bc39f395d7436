package rules

import (
	"fmt"
	"time"

	"phoa/internal/types"
)

// DecodeRuleDocument converts a raw document into its typed form. It checks
// only what the conversion needs; call ValidateRuleDocument first for the full
// schema. An unparsable generatedAt is dropped rather than rejected.
func DecodeRuleDocument(raw map[string]any) (*types.RuleDocument, error) {
	doc := &types.RuleDocument{
		ConditionID:   stringField(raw, fieldPhobiaID),
		ConditionName: stringField(raw, fieldPhobiaName),
		MainTrigger:   stringField(raw, fieldMainTrigger),
	}
	if doc.ConditionID == "" {
		return nil, fmt.Errorf("rule document has no %s", fieldPhobiaID)
	}

	if s := stringField(raw, fieldGeneratedAt); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			doc.GeneratedAt = &t
		}
	}

	entries, _ := raw[fieldSensorRules].([]any)
	doc.SensorRules = make(types.SensorRules, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not an object", fieldSensorRules, i)
		}
		name := stringField(obj, fieldName)
		if _, known := types.LookupSignal(name); !known {
			return nil, fmt.Errorf("%s[%d] names unknown signal %q", fieldSensorRules, i, name)
		}
		value, err := types.ValueFromAny(obj[fieldValue])
		if err != nil {
			return nil, fmt.Errorf("%s[%d].%s: %w", fieldSensorRules, i, fieldValue, err)
		}
		rule := types.SensorRule{
			Type:     stringField(obj, fieldType),
			Name:     types.Signal(name),
			Value:    value,
			UnitText: stringField(obj, fieldUnitText),
		}
		doc.SensorRules = append(doc.SensorRules, rule)
	}

	return doc, nil
}

// ParseRuleDocument validates and decodes in one step. Schema violations are
// returned as a validation AppError carrying the full list.
func (v *Validator) ParseRuleDocument(raw map[string]any) (*types.RuleDocument, error) {
	if vs := v.ValidateRuleDocument(raw); len(vs) > 0 {
		return nil, types.NewViolationsError(types.ErrCodeValidationRuleDocument,
			fmt.Sprintf("rule document has %d violation(s)", len(vs)), vs)
	}
	return DecodeRuleDocument(raw)
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
