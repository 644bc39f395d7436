package engine

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"phoa/internal/types"
)

// ValidateDocument checks a rule document without storing it.
func (s *Service) ValidateDocument(raw map[string]any) []types.Violation {
	return s.validator.ValidateRuleDocument(raw)
}

// ValidateCondition checks a catalog record.
func (s *Service) ValidateCondition(raw map[string]any) []types.Violation {
	return s.validator.ValidateCondition(raw)
}

// StoreRuleDocument validates raw and replaces the stored document of
// conditionID with it. The document must name the same condition and the
// condition must exist in the catalog.
func (s *Service) StoreRuleDocument(ctx context.Context, conditionID string, raw map[string]any) (*types.RuleDocument, error) {
	doc, err := s.validator.ParseRuleDocument(raw)
	if err != nil {
		return nil, err
	}
	if doc.ConditionID != conditionID {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationIDMismatch,
			"phobiaId does not match the condition in the path", nil,
			map[string]any{"path": conditionID, "body": doc.ConditionID})
	}

	found, err := s.conditions.GetByIDs(ctx, []string{conditionID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, types.NewAppError(types.ErrCodeNotFoundCondition,
			fmt.Sprintf("condition %s not found", conditionID), nil)
	}

	if err := s.rules.Replace(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "rule document stored",
		"condition_id", conditionID,
		"active_rules", len(doc.ActiveRules()),
	)
	return doc, nil
}

// GetRuleDocument returns the stored document of conditionID as stored.
func (s *Service) GetRuleDocument(ctx context.Context, conditionID string) (types.RawDocument, error) {
	docs, err := s.rules.GetRawByConditionIDs(ctx, []string{conditionID})
	if err != nil {
		return nil, err
	}
	doc, ok := docs[conditionID]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundRuleDocument,
			fmt.Sprintf("no rule document for condition %s", conditionID), nil)
	}
	return doc, nil
}

// Audit validates every stored condition and rule document and tallies the
// result. Invalid items are reported, never fatal.
func (s *Service) Audit(ctx context.Context) (types.AuditReport, error) {
	var conditions, documents []types.RawDocument
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		conditions, err = s.conditions.ListRaw(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		documents, err = s.rules.ListRaw(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.AuditReport{}, err
	}

	report := s.validator.Audit(asMaps(conditions), asMaps(documents))
	if s.recorder != nil {
		s.recorder.RecordAudit(ctx, report)
	}

	log := s.logger.InfoContext
	if report.Conditions.Invalid > 0 || report.RuleDocuments.Invalid > 0 {
		log = s.logger.WarnContext
	}
	log(ctx, "audit complete",
		"summary", report.Summary,
		"invalid_conditions", report.Conditions.Invalid,
		"invalid_rule_documents", report.RuleDocuments.Invalid,
	)
	return report, nil
}

func asMaps(docs []types.RawDocument) []map[string]any {
	return lo.Map(docs, func(d types.RawDocument, _ int) map[string]any { return d })
}
