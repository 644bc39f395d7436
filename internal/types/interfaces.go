package types

import "context"

// ConditionRepository provides read access to the condition catalog.
type ConditionRepository interface {
	// GetByIDs returns the catalog entries for the given identifiers. Unknown
	// identifiers are omitted from the result rather than reported as errors.
	GetByIDs(ctx context.Context, ids []string) ([]*Condition, error)
	// ListRaw returns every catalog row as an untyped document for auditing.
	ListRaw(ctx context.Context) ([]RawDocument, error)
}

// RuleDocumentRepository stores one rule document per condition.
type RuleDocumentRepository interface {
	// GetRawByConditionIDs returns stored documents keyed by condition ID.
	GetRawByConditionIDs(ctx context.Context, ids []string) (map[string]RawDocument, error)
	// ListRaw returns every stored document for auditing.
	ListRaw(ctx context.Context) ([]RawDocument, error)
	// Replace stores doc as the condition's document, overwriting any prior one.
	Replace(ctx context.Context, doc *RuleDocument) error
}

// TreatmentRepository looks up recommendations for conditions.
type TreatmentRepository interface {
	ListByConditionIDs(ctx context.Context, ids []string) (map[string][]Treatment, error)
}

// RepositoryRegistry provides access to all repository instances.
type RepositoryRegistry interface {
	Conditions() ConditionRepository
	RuleDocuments() RuleDocumentRepository
	Treatments() TreatmentRepository
}
