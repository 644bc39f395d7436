// Package engine runs one trigger evaluation end to end: it loads the
// requested conditions with their rule documents and treatments, normalizes
// the caller's context, evaluates every condition and ranks the resulting
// alerts. It also owns rule document storage and the batch audit.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"phoa/internal/alerts"
	"phoa/internal/evaluator"
	"phoa/internal/rules"
	"phoa/internal/types"
)

// MaxConditions caps the identifiers accepted by one evaluation.
const MaxConditions = 100

// Diagnostics reported in Result.Skipped.
const (
	SkipUnknownCondition   = "unknown condition"
	SkipMissingDocument    = "missing rule document"
	SkipInvalidDocument    = "invalid rule document"
	SkipMismatchedDocument = "rule document names another condition"
	// SkipNothingToEvaluate applies in text-only fallback mode to conditions
	// with neither a usable rule document nor a trigger phrase.
	SkipNothingToEvaluate = "no rule document or trigger phrase"
)

// ConditionStore reads the condition catalog.
type ConditionStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]*types.Condition, error)
	ListRaw(ctx context.Context) ([]types.RawDocument, error)
}

// RuleStore reads and replaces stored rule documents.
type RuleStore interface {
	GetRawByConditionIDs(ctx context.Context, ids []string) (map[string]types.RawDocument, error)
	ListRaw(ctx context.Context) ([]types.RawDocument, error)
	Replace(ctx context.Context, doc *types.RuleDocument) error
}

// RecommendationSource supplies stored treatments per condition.
type RecommendationSource interface {
	ListByConditionIDs(ctx context.Context, ids []string) (map[string][]types.Treatment, error)
}

// ContextNormalizer turns raw caller context into a snapshot.
type ContextNormalizer interface {
	Normalize(ctx context.Context, raw types.RawContext, messages []types.GroupMessage) (*types.Snapshot, error)
}

// AlertPublisher hands produced alerts to downstream delivery.
type AlertPublisher interface {
	Publish(ctx context.Context, evaluationID, userID string, alerts []types.Alert) error
}

// Recorder receives evaluation and audit telemetry.
type Recorder interface {
	RecordEvaluation(ctx context.Context, alerts []types.Alert, skipped int, duration time.Duration)
	RecordAudit(ctx context.Context, report types.AuditReport)
	RecordPublishFailure(ctx context.Context)
}

// Request is one evaluation.
type Request struct {
	ConditionIDs  []string
	Context       types.RawContext
	GroupMessages []types.GroupMessage
	// Triggers are extra free-text mentions checked by the text channel.
	Triggers []string
	UserID   string
}

// Skipped records a requested condition that was not evaluated.
type Skipped struct {
	ConditionID string `json:"conditionId"`
	Reason      string `json:"reason"`
}

// Result is the outcome of one evaluation.
type Result struct {
	EvaluationID string          `json:"evaluationId"`
	Alerts       []types.Alert   `json:"alerts"`
	Skipped      []Skipped       `json:"skipped,omitempty"`
	Context      *types.Snapshot `json:"context"`
}

// Service wires the evaluation pipeline.
type Service struct {
	conditions    ConditionStore
	rules         RuleStore
	treatments    RecommendationSource
	validator     *rules.Validator
	normalizer    ContextNormalizer
	evaluator     *evaluator.Evaluator
	ranker        *alerts.Ranker
	catalog       *alerts.Catalog
	publisher     AlertPublisher
	recorder      Recorder
	informational bool
	textFallback  bool
	logger        *slog.Logger
	now           func() time.Time
}

// Config holds the dependencies for creating a Service.
//
// Publisher and Recorder are optional. Ranker defaults to alerts.NewRanker(),
// Now to time.Now and Logger to slog.Default().
type Config struct {
	Conditions ConditionStore
	Rules      RuleStore
	Treatments RecommendationSource
	Validator  *rules.Validator
	Normalizer ContextNormalizer
	Evaluator  *evaluator.Evaluator
	Ranker     *alerts.Ranker
	Catalog    *alerts.Catalog
	Publisher  AlertPublisher
	Recorder   Recorder
	// Informational enables the wall-clock notices.
	Informational bool
	// TextOnlyFallback evaluates conditions whose rule document is missing
	// or invalid on the text channel instead of skipping them.
	TextOnlyFallback bool
	Logger           *slog.Logger
	Now           func() time.Time
}

// NewService creates a Service. It fails when a required dependency is nil.
func NewService(cfg Config) (*Service, error) {
	switch {
	case cfg.Conditions == nil:
		return nil, fmt.Errorf("engine: condition store must not be nil")
	case cfg.Rules == nil:
		return nil, fmt.Errorf("engine: rule store must not be nil")
	case cfg.Treatments == nil:
		return nil, fmt.Errorf("engine: recommendation source must not be nil")
	case cfg.Validator == nil:
		return nil, fmt.Errorf("engine: validator must not be nil")
	case cfg.Normalizer == nil:
		return nil, fmt.Errorf("engine: normalizer must not be nil")
	case cfg.Evaluator == nil:
		return nil, fmt.Errorf("engine: evaluator must not be nil")
	}

	s := &Service{
		conditions:    cfg.Conditions,
		rules:         cfg.Rules,
		treatments:    cfg.Treatments,
		validator:     cfg.Validator,
		normalizer:    cfg.Normalizer,
		evaluator:     cfg.Evaluator,
		ranker:        cfg.Ranker,
		catalog:       cfg.Catalog,
		publisher:     cfg.Publisher,
		recorder:      cfg.Recorder,
		informational: cfg.Informational,
		textFallback:  cfg.TextOnlyFallback,
		logger:        cfg.Logger,
		now:           cfg.Now,
	}
	if s.ranker == nil {
		s.ranker = alerts.NewRanker()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Evaluate runs the pipeline for one request. Unknown conditions are skipped
// with a diagnostic, and a request that activates nothing returns an empty
// alert list. Errors are returned only for malformed context, an oversized
// request or storage failures.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Result, error) {
	started := s.now()
	ids := normalizeIDs(req.ConditionIDs)
	if len(ids) > MaxConditions {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeValidationBatchSize,
			fmt.Sprintf("at most %d conditions per evaluation", MaxConditions), nil,
			map[string]any{"requested": len(ids)})
	}

	var (
		snap       *types.Snapshot
		conditions []*types.Condition
		rawDocs    map[string]types.RawDocument
		treatments map[string][]types.Treatment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = s.normalizer.Normalize(gctx, req.Context, req.GroupMessages)
		return err
	})
	if len(ids) > 0 {
		g.Go(func() error {
			var err error
			conditions, err = s.conditions.GetByIDs(gctx, ids)
			return err
		})
		g.Go(func() error {
			var err error
			rawDocs, err = s.rules.GetRawByConditionIDs(gctx, ids)
			return err
		})
		g.Go(func() error {
			var err error
			treatments, err = s.treatments.ListByConditionIDs(gctx, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	subjects, skipped := s.subjects(ctx, ids, conditions, rawDocs)
	candidates := s.evaluator.Evaluate(snap, subjects, lo.Compact(req.Triggers))

	var notices []alerts.Notice
	if s.informational {
		notices = alerts.Informational(snap.Timestamp, evaluationLocation(req.Context.Timezone))
	}

	recs := alerts.NewRecommendations(withPossibleTreatments(treatments, conditions), s.catalog)
	ranked := s.ranker.Rank(candidates, notices, recs, s.now().UTC())

	res := &Result{
		EvaluationID: uuid.NewString(),
		Alerts:       ranked,
		Skipped:      skipped,
		Context:      snap,
	}
	if res.Alerts == nil {
		res.Alerts = []types.Alert{}
	}

	s.publish(ctx, res, req.UserID)
	if s.recorder != nil {
		s.recorder.RecordEvaluation(ctx, res.Alerts, len(skipped), s.now().Sub(started))
	}

	s.logger.InfoContext(ctx, "evaluation complete",
		"evaluation_id", res.EvaluationID,
		"requested", len(ids),
		"evaluated", len(subjects),
		"skipped", len(skipped),
		"alerts", len(res.Alerts),
		"degraded", snap.Degraded,
	)
	return res, nil
}

// subjects pairs each known condition with its decoded rule document.
// Conditions without a usable document are skipped with a diagnostic unless
// text-only fallback is enabled, in which case they are evaluated on the text
// channel as long as they have a trigger phrase.
func (s *Service) subjects(ctx context.Context, ids []string, conditions []*types.Condition, rawDocs map[string]types.RawDocument) ([]evaluator.Subject, []Skipped) {
	known := lo.KeyBy(conditions, func(c *types.Condition) string { return c.ID })

	var skipped []Skipped
	skip := func(id, reason string) {
		s.logger.WarnContext(ctx, "condition skipped", "condition_id", id, "reason", reason)
		skipped = append(skipped, Skipped{ConditionID: id, Reason: reason})
	}

	subjects := make([]evaluator.Subject, 0, len(conditions))
	for _, id := range ids {
		cond, ok := known[id]
		if !ok {
			skip(id, SkipUnknownCondition)
			continue
		}
		doc, reason := s.decodeDocument(ctx, id, rawDocs[id])
		if doc == nil {
			if !s.textFallback {
				skip(id, reason)
				continue
			}
			if cond.TriggerPhrase(nil) == "" {
				skip(id, SkipNothingToEvaluate)
				continue
			}
		}
		subjects = append(subjects, evaluator.Subject{Condition: cond, Doc: doc})
	}
	return subjects, skipped
}

// decodeDocument validates a stored document. When it is unusable the
// returned reason says why.
func (s *Service) decodeDocument(ctx context.Context, conditionID string, raw types.RawDocument) (*types.RuleDocument, string) {
	if raw == nil {
		return nil, SkipMissingDocument
	}
	doc, err := s.validator.ParseRuleDocument(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "stored rule document is invalid",
			"condition_id", conditionID,
			"error", err.Error(),
		)
		return nil, SkipInvalidDocument
	}
	if doc.ConditionID != conditionID {
		s.logger.WarnContext(ctx, "stored rule document names another condition",
			"condition_id", conditionID,
			"document_condition_id", doc.ConditionID,
		)
		return nil, SkipMismatchedDocument
	}
	return doc, ""
}

func (s *Service) publish(ctx context.Context, res *Result, userID string) {
	if s.publisher == nil || len(res.Alerts) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, res.EvaluationID, userID, res.Alerts); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish alerts",
			"evaluation_id", res.EvaluationID,
			"error", err.Error(),
		)
		if s.recorder != nil {
			s.recorder.RecordPublishFailure(ctx)
		}
	}
}

// NormalizeContext builds a snapshot without evaluating any condition.
func (s *Service) NormalizeContext(ctx context.Context, raw types.RawContext, messages []types.GroupMessage) (*types.Snapshot, error) {
	return s.normalizer.Normalize(ctx, raw, messages)
}

// normalizeIDs trims, drops empties and removes duplicates, keeping the
// first occurrence.
func normalizeIDs(ids []string) []string {
	return lo.Uniq(lo.Compact(lo.Map(ids, func(id string, _ int) string {
		return strings.TrimSpace(id)
	})))
}

// withPossibleTreatments fills conditions that have no stored treatment from
// the catalog's possibleTreatment names.
func withPossibleTreatments(stored map[string][]types.Treatment, conditions []*types.Condition) map[string][]types.Treatment {
	out := make(map[string][]types.Treatment, len(conditions))
	for id, ts := range stored {
		out[id] = ts
	}
	for _, c := range conditions {
		if len(out[c.ID]) > 0 || len(c.PossibleTreatment) == 0 {
			continue
		}
		out[c.ID] = lo.Map(c.PossibleTreatment, func(name string, _ int) types.Treatment {
			return types.Treatment{ConditionID: c.ID, Name: name}
		})
	}
	return out
}

// evaluationLocation resolves the zone used for wall-clock notices. The
// normalizer has already rejected unknown zones.
func evaluationLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
