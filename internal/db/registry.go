package db

import "phoa/internal/types"

// Compile-time interface checks.
var (
	_ types.ConditionRepository    = (*ConditionRepository)(nil)
	_ types.RuleDocumentRepository = (*RuleDocumentRepository)(nil)
	_ types.TreatmentRepository    = (*TreatmentRepository)(nil)
	_ types.RepositoryRegistry     = (*Registry)(nil)
)

// Registry bundles the repositories over one connection.
type Registry struct {
	conditions *ConditionRepository
	rules      *RuleDocumentRepository
	treatments *TreatmentRepository
}

// NewRegistry creates every repository over db.
func NewRegistry(db DBTX) *Registry {
	return &Registry{
		conditions: NewConditionRepository(db),
		rules:      NewRuleDocumentRepository(db),
		treatments: NewTreatmentRepository(db),
	}
}

func (r *Registry) Conditions() types.ConditionRepository       { return r.conditions }
func (r *Registry) RuleDocuments() types.RuleDocumentRepository { return r.rules }
func (r *Registry) Treatments() types.TreatmentRepository       { return r.treatments }
