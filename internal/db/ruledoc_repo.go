package db

import (
	"context"
	"encoding/json"
	"time"

	"phoa/internal/types"
)

// RuleDocumentRepository stores one generated rule document per condition.
// Documents are kept as raw JSONB so that malformed rows written by older
// producers can still be audited field by field.
type RuleDocumentRepository struct {
	db  DBTX
	now func() time.Time
}

// NewRuleDocumentRepository creates a new RuleDocumentRepository backed by the
// given database connection (pool or transaction).
func NewRuleDocumentRepository(db DBTX) *RuleDocumentRepository {
	return &RuleDocumentRepository{db: db, now: time.Now}
}

// GetRawByConditionIDs returns the stored documents keyed by condition ID.
// Conditions without a document are absent from the map.
func (r *RuleDocumentRepository) GetRawByConditionIDs(ctx context.Context, ids []string) (map[string]types.RawDocument, error) {
	out := make(map[string]types.RawDocument, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT d.condition_id, d.document
		 FROM rule_documents d
		 WHERE d.condition_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query rule documents", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var doc types.RawDocument
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan rule document", err)
		}
		out[id] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate rule documents", err)
	}
	return out, nil
}

// ListRaw returns every stored document for auditing.
func (r *RuleDocumentRepository) ListRaw(ctx context.Context) ([]types.RawDocument, error) {
	rows, err := r.db.Query(ctx,
		`SELECT d.document FROM rule_documents d ORDER BY d.condition_id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list rule documents", err)
	}
	return collectRaw(rows, "rule documents")
}

// Replace stores doc as the condition's document, overwriting any prior
// version wholesale. GeneratedAt is stamped when the producer left it empty.
func (r *RuleDocumentRepository) Replace(ctx context.Context, doc *types.RuleDocument) error {
	if doc.GeneratedAt == nil {
		now := r.now().UTC().Truncate(time.Second)
		doc.GeneratedAt = &now
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode rule document", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO rule_documents (condition_id, document, generated_at, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (condition_id) DO UPDATE
		 SET document = EXCLUDED.document,
		     generated_at = EXCLUDED.generated_at,
		     updated_at = NOW()`,
		doc.ConditionID,
		payload,
		*doc.GeneratedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to store rule document", err)
	}
	return nil
}
