package types

import "time"

// Condition is a phobia/allergy catalog entry that can be tracked and alerted
// on. The catalog is owned externally; this service only reads it.
type Condition struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	Trigger           string     `json:"trigger,omitempty"`
	Image             string     `json:"image,omitempty"`
	PossibleTreatment StringList `json:"possibleTreatment,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt,omitzero"`
}

// TriggerPhrase returns the phrase used by the text channel. Falls back to
// the rule document's main trigger when the catalog entry has none.
func (c *Condition) TriggerPhrase(doc *RuleDocument) string {
	if c != nil && c.Trigger != "" {
		return c.Trigger
	}
	if doc != nil {
		return doc.MainTrigger
	}
	return ""
}

// DisplayName returns the catalog name, falling back to the identifier.
func (c *Condition) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Treatment is a recommendation attached to a condition.
type Treatment struct {
	ConditionID string `json:"conditionId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}
