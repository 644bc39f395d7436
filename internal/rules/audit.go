package rules

import (
	"fmt"

	"phoa/internal/types"
)

// Audit validates both stored collections and tallies the result. It never
// stops at the first failure: every invalid item is listed with all of its
// violations.
func (v *Validator) Audit(conditions, documents []map[string]any) types.AuditReport {
	report := types.AuditReport{
		Conditions:    auditCollection(conditions, fieldID, v.ValidateCondition),
		RuleDocuments: auditCollection(documents, fieldPhobiaID, v.ValidateRuleDocument),
		GeneratedAt:   v.now().UTC(),
	}
	report.Summary = Summarize(report)
	return report
}

// Summarize renders the one-line audit summary.
func Summarize(r types.AuditReport) string {
	return fmt.Sprintf("Conditions: %d/%d valid. Rule documents: %d/%d valid.",
		r.Conditions.Valid, r.Conditions.Total, r.RuleDocuments.Valid, r.RuleDocuments.Total)
}

func auditCollection(items []map[string]any, idField string, check func(map[string]any) []types.Violation) types.CollectionReport {
	report := types.CollectionReport{
		Total:  len(items),
		Errors: []types.ItemReport{},
	}
	for i, item := range items {
		vs := check(item)
		if len(vs) == 0 {
			report.Valid++
			continue
		}
		report.Invalid++
		report.Errors = append(report.Errors, types.ItemReport{
			Item:       itemLabel(item, idField, i),
			Violations: vs,
		})
	}
	return report
}

// itemLabel identifies an audited item by its identifier, or by position when
// the identifier itself is unusable.
func itemLabel(item map[string]any, idField string, i int) string {
	if id := stringField(item, idField); id != "" {
		return id
	}
	return fmt.Sprintf("#%d", i)
}
