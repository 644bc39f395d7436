package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"phoa/internal/core"
	"phoa/internal/types"
)

// RuleService is the rule-document side of the engine.
type RuleService interface {
	ValidateDocument(raw map[string]any) []types.Violation
	ValidateCondition(raw map[string]any) []types.Violation
	StoreRuleDocument(ctx context.Context, conditionID string, raw map[string]any) (*types.RuleDocument, error)
	GetRuleDocument(ctx context.Context, conditionID string) (types.RawDocument, error)
	Audit(ctx context.Context) (types.AuditReport, error)
}

// Document kinds accepted by POST /v1/rules/validate.
const (
	KindRuleDocument = "rule_document"
	KindCondition    = "condition"
)

// ValidateRequest is the request body for POST /v1/rules/validate.
type ValidateRequest struct {
	Kind     string         `json:"kind" validate:"omitempty,oneof=rule_document condition"`
	Document map[string]any `json:"document" validate:"required"`
}

// ValidateResponse lists every violation found. An empty list means valid.
type ValidateResponse struct {
	Valid      bool              `json:"valid"`
	Violations []types.Violation `json:"violations"`
}

// RuleHandler serves rule-document validation, storage and audit.
type RuleHandler struct {
	rules     RuleService
	validator *core.Validator
	logger    *slog.Logger
}

// NewRuleHandler creates a RuleHandler.
func NewRuleHandler(s RuleService, v *core.Validator, l *slog.Logger) *RuleHandler {
	if l == nil {
		l = slog.Default()
	}
	return &RuleHandler{rules: s, validator: v, logger: l}
}

// RegisterRoutes mounts the rule routes on the /v1 router.
func (h *RuleHandler) RegisterRoutes(r chi.Router) {
	r.Post("/rules/validate", h.Validate)
	r.Get("/rules/audit", h.Audit)
	r.Route("/conditions/{id}/rules", func(r chi.Router) {
		r.Get("/", h.GetDocument)
		r.Put("/", h.PutDocument)
	})
}

// Validate handles POST /v1/rules/validate. Invalid documents are a
// successful response with valid=false; only a malformed request fails.
func (h *RuleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	var violations []types.Violation
	if req.Kind == KindCondition {
		violations = h.rules.ValidateCondition(req.Document)
	} else {
		violations = h.rules.ValidateDocument(req.Document)
	}
	if violations == nil {
		violations = []types.Violation{}
	}
	core.Data(w, r, http.StatusOK, ValidateResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}

// PutDocument handles PUT /v1/conditions/{id}/rules. The stored document
// is replaced wholesale.
func (h *RuleHandler) PutDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := conditionID(w, r)
	if !ok {
		return
	}

	var raw map[string]any
	if err := core.DecodeJSON(w, r, &raw); err != nil {
		core.Error(w, r, err)
		return
	}

	doc, err := h.rules.StoreRuleDocument(r.Context(), id, raw)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, doc)
}

// GetDocument handles GET /v1/conditions/{id}/rules.
func (h *RuleHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := conditionID(w, r)
	if !ok {
		return
	}
	doc, err := h.rules.GetRuleDocument(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, doc)
}

// Audit handles GET /v1/rules/audit.
func (h *RuleHandler) Audit(w http.ResponseWriter, r *http.Request) {
	report, err := h.rules.Audit(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, report)
}

func conditionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField, "condition id is required", nil))
		return "", false
	}
	return id, true
}
