package engine

import (
	"context"
	"errors"

	"phoa/internal/types"
)

// LambdaRequest is the rules-engine function payload.
type LambdaRequest struct {
	Phobias       []string             `json:"phobias"`
	Context       types.RawContext     `json:"context"`
	GroupMessages []types.GroupMessage `json:"groupMessages"`
	UserID        string               `json:"userId,omitempty"`
}

// LambdaResponse is the rules-engine function result.
type LambdaResponse struct {
	Success bool          `json:"success"`
	Alerts  []types.Alert `json:"alerts"`
	Error   string        `json:"error,omitempty"`
}

// HandleLambda evaluates one payload. Failures are reported in the response
// body so that the invocation itself is not retried.
func (s *Service) HandleLambda(ctx context.Context, req LambdaRequest) (LambdaResponse, error) {
	res, err := s.Evaluate(ctx, Request{
		ConditionIDs:  req.Phobias,
		Context:       req.Context,
		GroupMessages: req.GroupMessages,
		UserID:        req.UserID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "rules-engine evaluation failed", "error", err.Error())
		return LambdaResponse{Success: false, Alerts: []types.Alert{}, Error: publicMessage(err)}, nil
	}
	return LambdaResponse{Success: true, Alerts: res.Alerts}, nil
}

// publicMessage hides internal error detail from callers.
func publicMessage(err error) string {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus() >= 500 {
			return "internal error"
		}
		return appErr.Message
	}
	return "internal error"
}
