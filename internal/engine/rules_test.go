package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"phoa/internal/types"
)

func requireCode(t *testing.T, err error, code types.ErrorCode) {
	t.Helper()
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestStoreRuleDocument(t *testing.T) {
	h := newHarness()
	h.conditions.On("GetByIDs", mock.Anything, []string{"Q1"}).
		Return([]*types.Condition{{ID: "Q1", Name: "Nosocomephobia"}}, nil)
	h.rules.On("Replace", mock.Anything, mock.MatchedBy(func(d *types.RuleDocument) bool {
		return d.ConditionID == "Q1" && len(d.SensorRules) == 8
	})).Return(nil)

	doc, err := h.service(t, false).StoreRuleDocument(context.Background(), "Q1", rawDoc(t, hospitalDocJSON))
	require.NoError(t, err)
	assert.Equal(t, "Nosocomephobia", doc.ConditionName)
	h.rules.AssertExpectations(t)
}

func TestStoreRuleDocument_Invalid(t *testing.T) {
	h := newHarness()
	_, err := h.service(t, false).StoreRuleDocument(context.Background(), "Q1",
		map[string]any{"phobiaId": "Q1", "sensorRules": []any{}})

	requireCode(t, err, types.ErrCodeValidationRuleDocument)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.NotEmpty(t, appErr.Details["violations"])
	h.rules.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestStoreRuleDocument_IDMismatch(t *testing.T) {
	h := newHarness()
	_, err := h.service(t, false).StoreRuleDocument(context.Background(), "Q2", rawDoc(t, hospitalDocJSON))
	requireCode(t, err, types.ErrCodeValidationIDMismatch)
}

func TestStoreRuleDocument_UnknownCondition(t *testing.T) {
	h := newHarness()
	h.conditions.On("GetByIDs", mock.Anything, []string{"Q1"}).Return([]*types.Condition{}, nil)

	_, err := h.service(t, false).StoreRuleDocument(context.Background(), "Q1", rawDoc(t, hospitalDocJSON))
	requireCode(t, err, types.ErrCodeNotFoundCondition)
	h.rules.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestGetRuleDocument(t *testing.T) {
	h := newHarness()
	stored := rawDoc(t, hospitalDocJSON)
	h.rules.On("GetRawByConditionIDs", mock.Anything, []string{"Q1"}).
		Return(map[string]types.RawDocument{"Q1": stored}, nil)
	h.rules.On("GetRawByConditionIDs", mock.Anything, []string{"Q2"}).
		Return(map[string]types.RawDocument{}, nil)

	svc := h.service(t, false)
	got, err := svc.GetRuleDocument(context.Background(), "Q1")
	require.NoError(t, err)
	assert.Equal(t, "Nosocomephobia", got["phobiaName"])

	_, err = svc.GetRuleDocument(context.Background(), "Q2")
	requireCode(t, err, types.ErrCodeNotFoundRuleDocument)
}

func TestAudit(t *testing.T) {
	h := newHarness()
	h.conditions.On("ListRaw", mock.Anything).Return([]types.RawDocument{
		{"id": "Q1", "name": "Nosocomephobia", "description": "Fear of hospitals"},
		{"id": "Q2", "name": "", "description": "Fear of spiders"},
	}, nil)
	h.rules.On("ListRaw", mock.Anything).Return([]types.RawDocument{rawDoc(t, hospitalDocJSON)}, nil)

	report, err := h.service(t, false).Audit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Conditions.Total)
	assert.Equal(t, 1, report.Conditions.Invalid)
	assert.Equal(t, 1, report.RuleDocuments.Valid)
	assert.Equal(t, "Conditions: 1/2 valid. Rule documents: 1/1 valid.", report.Summary)
	require.Len(t, h.recorder.audits, 1)
	assert.Equal(t, report.Summary, h.recorder.audits[0].Summary)
}

func TestAudit_StorageError(t *testing.T) {
	h := newHarness()
	h.conditions.On("ListRaw", mock.Anything).Return(nil, errors.New("connection refused"))
	h.rules.On("ListRaw", mock.Anything).Return([]types.RawDocument{}, nil)

	_, err := h.service(t, false).Audit(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.Empty(t, h.recorder.audits)
}

func TestValidateDocument(t *testing.T) {
	svc := newHarness().service(t, false)
	assert.Empty(t, svc.ValidateDocument(rawDoc(t, hospitalDocJSON)))
	assert.NotEmpty(t, svc.ValidateDocument(map[string]any{}))
}
