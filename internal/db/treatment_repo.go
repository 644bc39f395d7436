package db

import (
	"context"

	"phoa/internal/types"
)

// TreatmentRepository looks up treatment recommendations per condition.
type TreatmentRepository struct {
	db DBTX
}

// NewTreatmentRepository creates a new TreatmentRepository.
func NewTreatmentRepository(db DBTX) *TreatmentRepository {
	return &TreatmentRepository{db: db}
}

// ListByConditionIDs returns treatments grouped by condition ID, each group in
// name order.
func (r *TreatmentRepository) ListByConditionIDs(ctx context.Context, ids []string) (map[string][]types.Treatment, error) {
	out := make(map[string][]types.Treatment)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT t.condition_id, t.name, t.description, t.url
		 FROM treatments t
		 WHERE t.condition_id = ANY($1)
		 ORDER BY t.condition_id, t.name`,
		ids,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query treatments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t types.Treatment
		var desc, url *string
		if err := rows.Scan(&t.ConditionID, &t.Name, &desc, &url); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan treatment", err)
		}
		t.Description = derefString(desc)
		t.URL = derefString(url)
		out[t.ConditionID] = append(out[t.ConditionID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate treatments", err)
	}
	return out, nil
}
