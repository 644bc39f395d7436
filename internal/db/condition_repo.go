package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"phoa/internal/types"
)

// ConditionRepository provides read access to the conditions catalog. The
// catalog is synchronized by an external job; this service never writes it.
type ConditionRepository struct {
	db DBTX
}

// NewConditionRepository creates a new ConditionRepository backed by the given
// database connection (pool or transaction).
func NewConditionRepository(db DBTX) *ConditionRepository {
	return &ConditionRepository{db: db}
}

const conditionColumns = `c.id, c.name, c.description, c.trigger, c.image,
	c.possible_treatment, c.updated_at`

// scanCondition scans a row into a types.Condition. The columns must match
// the order defined in conditionColumns.
func scanCondition(row pgx.Row) (*types.Condition, error) {
	var c types.Condition
	var trigger, image *string

	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&trigger,
		&image,
		&c.PossibleTreatment,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Trigger = derefString(trigger)
	c.Image = derefString(image)
	return &c, nil
}

// GetByIDs returns the catalog entries for ids, ordered by name. Unknown IDs
// are omitted.
func (r *ConditionRepository) GetByIDs(ctx context.Context, ids []string) ([]*types.Condition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+conditionColumns+`
		 FROM conditions c
		 WHERE c.id = ANY($1)
		 ORDER BY c.name, c.id`,
		ids,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query conditions", err)
	}
	defer rows.Close()

	var out []*types.Condition
	for rows.Next() {
		c, err := scanCondition(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan condition", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate conditions", err)
	}
	return out, nil
}

// ListRaw returns every catalog row as an untyped document in the wire shape
// the validator checks. The row is rebuilt in SQL so that NULL and mistyped
// columns reach the audit as they are stored.
func (r *ConditionRepository) ListRaw(ctx context.Context) ([]types.RawDocument, error) {
	rows, err := r.db.Query(ctx,
		`SELECT jsonb_strip_nulls(jsonb_build_object(
		     'id', c.id,
		     'name', c.name,
		     'description', c.description,
		     'trigger', c.trigger,
		     'image', c.image,
		     'possibleTreatment', c.possible_treatment))
		 FROM conditions c
		 ORDER BY c.id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list conditions", err)
	}
	return collectRaw(rows, "conditions")
}

// collectRaw drains rows holding one JSONB column each.
func collectRaw(rows pgx.Rows, what string) ([]types.RawDocument, error) {
	defer rows.Close()

	var out []types.RawDocument
	for rows.Next() {
		var doc types.RawDocument
		if err := rows.Scan(&doc); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan "+what, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate "+what, err)
	}
	return out, nil
}
