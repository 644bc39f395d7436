package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"phoa/internal/core"
	"phoa/internal/types"
)

// ContextNormalizer builds a snapshot from a raw context.
type ContextNormalizer interface {
	NormalizeContext(ctx context.Context, raw types.RawContext, messages []types.GroupMessage) (*types.Snapshot, error)
}

// NormalizeContextRequest is the request body for POST /v1/context/normalize.
type NormalizeContextRequest struct {
	Context       types.RawContext     `json:"context"`
	GroupMessages []types.GroupMessage `json:"groupMessages" validate:"max=200"`
}

// contextCheck mirrors the parts of a raw context that can be checked
// before normalization runs.
type contextCheck struct {
	Latitude     *float64 `json:"latitude" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"required_with=Latitude,omitempty,longitude"`
	Timezone     string   `json:"timezone" validate:"omitempty,is_timezone"`
	Season       string   `json:"season" validate:"omitempty,season"`
	LocationType string   `json:"location_type" validate:"omitempty,location_type"`
}

type contextEnvelope struct {
	Context contextCheck `json:"context"`
}

func checkContext(v *core.Validator, raw types.RawContext) error {
	c := contextCheck{
		Latitude:  raw.Latitude,
		Longitude: raw.Longitude,
		Timezone:  raw.Timezone,
	}
	if s, ok := raw.Overrides[types.SignalSeason].AsText(); ok {
		c.Season = s
	}
	if s, ok := raw.Overrides[types.SignalLocationType].AsText(); ok {
		c.LocationType = s
	}
	return v.ValidateStruct(contextEnvelope{Context: c})
}

// contextWarnings lists degraded lookups and ignored context keys.
func contextWarnings(raw types.RawContext, snap *types.Snapshot) []string {
	var out []string
	if snap != nil {
		for _, lookup := range snap.Degraded {
			out = append(out, lookup+" lookup degraded")
		}
	}
	extra := slices.Clone(raw.Extra)
	slices.Sort(extra)
	for _, key := range extra {
		out = append(out, fmt.Sprintf("ignored unknown context key %q", key))
	}
	return out
}

// ContextHandler exposes context normalization on its own, mostly for
// clients checking what the evaluator will see.
type ContextHandler struct {
	normalizer ContextNormalizer
	validator  *core.Validator
	logger     *slog.Logger
}

func NewContextHandler(n ContextNormalizer, v *core.Validator, l *slog.Logger) *ContextHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ContextHandler{normalizer: n, validator: v, logger: l}
}

func (h *ContextHandler) RegisterRoutes(r chi.Router) {
	r.Post("/context/normalize", h.Normalize)
}

// Normalize handles POST /v1/context/normalize.
func (h *ContextHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeContextRequest
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

	snap, err := h.normalizer.NormalizeContext(r.Context(), req.Context, req.GroupMessages)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.Data(w, r, http.StatusOK, snap, contextWarnings(req.Context, snap)...)
}
