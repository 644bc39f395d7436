package types

import "time"

// PropertyValueMarker is the discriminator every sensor rule entry must carry
// in its "@type" field.
const PropertyValueMarker = "PropertyValue"

// SensorRule pairs a signal with its target value. A null Value means the
// signal is irrelevant to the condition.
type SensorRule struct {
	Type     string `json:"@type"`
	Name     Signal `json:"name"`
	Value    Value  `json:"value"`
	UnitText string `json:"unitText,omitempty"`
}

// NewSensorRule builds a rule entry with the PropertyValue marker and the
// signal's canonical unit.
func NewSensorRule(sig Signal, v Value) SensorRule {
	r := SensorRule{Type: PropertyValueMarker, Name: sig, Value: v}
	if meta, ok := Vocabulary[sig]; ok && !v.IsNull() {
		r.UnitText = meta.Unit
	}
	return r
}

// SensorRules is the ordered rule list of one document.
type SensorRules []SensorRule

// RuleDocument is the generated, schema-constrained mapping from sensor
// signals to trigger targets for one condition. Documents are replaced
// wholesale on regeneration and never patched field by field.
type RuleDocument struct {
	ConditionID   string      `json:"phobiaId"`
	ConditionName string      `json:"phobiaName"`
	MainTrigger   string      `json:"mainTrigger,omitempty"`
	SensorRules   SensorRules `json:"sensorRules"`
	GeneratedAt   *time.Time  `json:"generatedAt,omitempty"`
}

// Rule returns the entry for a signal, if the document carries one.
func (d *RuleDocument) Rule(sig Signal) (SensorRule, bool) {
	if d == nil {
		return SensorRule{}, false
	}
	for _, r := range d.SensorRules {
		if r.Name == sig {
			return r, true
		}
	}
	return SensorRule{}, false
}

// Target returns the non-null target value for a signal.
func (d *RuleDocument) Target(sig Signal) (Value, bool) {
	r, ok := d.Rule(sig)
	if !ok || r.Value.IsNull() {
		return Null(), false
	}
	return r.Value, true
}

// ActiveRules returns the entries with a non-null target, in document order.
func (d *RuleDocument) ActiveRules() []SensorRule {
	if d == nil {
		return nil
	}
	var out []SensorRule
	for _, r := range d.SensorRules {
		if !r.Value.IsNull() {
			out = append(out, r)
		}
	}
	return out
}
