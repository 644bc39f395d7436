// Package handlers contains the HTTP handlers of the PhoA API.
//
// Each handler depends on a narrow interface over the engine so it can be
// tested without storage or upstream providers.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"phoa/internal/core"
	"phoa/internal/engine"
	"phoa/internal/types"
)

// AlertEvaluator runs one evaluation.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, req engine.Request) (*engine.Result, error)
}

// EvaluateRequest is the request body for POST /v1/alerts/evaluate.
type EvaluateRequest struct {
	ConditionIDs  []string             `json:"conditionIds" validate:"max=100,dive,required,max=128"`
	Context       types.RawContext     `json:"context"`
	GroupMessages []types.GroupMessage `json:"groupMessages" validate:"max=200"`
	Triggers      []string             `json:"triggers" validate:"max=50,dive,required,max=100"`
	UserID        string               `json:"userId" validate:"omitempty,max=128"`
}

// AlertHandler serves alert evaluation.
type AlertHandler struct {
	engine    AlertEvaluator
	validator *core.Validator
	logger    *slog.Logger
}

// NewAlertHandler creates an AlertHandler.
func NewAlertHandler(e AlertEvaluator, v *core.Validator, l *slog.Logger) *AlertHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AlertHandler{engine: e, validator: v, logger: l}
}

// RegisterRoutes mounts the alert routes on the /v1 router.
func (h *AlertHandler) RegisterRoutes(r chi.Router) {
	r.Post("/alerts/evaluate", h.Evaluate)
}

// Evaluate handles POST /v1/alerts/evaluate.
//
// Unknown conditions are reported under "skipped" and never fail the request.
// Lookups that degraded during normalization and ignored context keys are
// reported as warnings in meta.
func (h *AlertHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := checkContext(h.validator, req.Context); err != nil {
		core.Error(w, r, err)
		return
	}

	res, err := h.engine.Evaluate(r.Context(), engine.Request{
		ConditionIDs:  req.ConditionIDs,
		Context:       req.Context,
		GroupMessages: req.GroupMessages,
		Triggers:      req.Triggers,
		UserID:        req.UserID,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.Data(w, r, http.StatusOK, res, contextWarnings(req.Context, res.Context)...)
}
