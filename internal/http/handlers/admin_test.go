package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/assessment-backend/internal/domain"
	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/services"
)

type fakeRuleService struct {
	gotProcess  string
	gotInput    services.RuleInput
	gotCategory string
	err         error
}

func (f *fakeRuleService) List(_ context.Context, process string) ([]*types.TopicRule, error) {
	f.gotProcess = process
	return []*types.TopicRule{{Process: process, Category: "Basics", CategoryKey: "basics"}}, f.err
}

func (f *fakeRuleService) Upsert(_ context.Context, process string, in services.RuleInput) (*types.TopicRule, error) {
	f.gotProcess, f.gotInput = process, in
	if f.err != nil {
		return nil, f.err
	}
	return &types.TopicRule{Process: process, Category: in.Category, MaxDisplay: in.MaxDisplay}, nil
}

func (f *fakeRuleService) Delete(_ context.Context, process, category string) error {
	f.gotProcess, f.gotCategory = process, category
	return f.err
}

func TestRuleHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeRuleService{}
	h := NewRuleHandler(svc)
	r := gin.New()
	r.GET("/api/admin/processes/:process/rules", h.ListRules)
	r.PUT("/api/admin/processes/:process/rules", h.UpsertRule)
	r.DELETE("/api/admin/processes/:process/rules/:category", h.DeleteRule)

	rec := doJSON(t, r, http.MethodGet, "/api/admin/processes/onboarding/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "onboarding", svc.gotProcess)

	rec = doJSON(t, r, http.MethodPut, "/api/admin/processes/onboarding/rules", map[string]any{
		"category":         "Basics",
		"min_attempt":      1,
		"max_display":      3,
		"required_attempt": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.gotInput.RequiredAttempt)
	require.Equal(t, 2, *svc.gotInput.RequiredAttempt)

	rec = doJSON(t, r, http.MethodDelete, "/api/admin/processes/onboarding/rules/Basics", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "Basics", svc.gotCategory)

	svc.err = domainagg.NewError(domainagg.CodeValidation, "op", "required_attempt exceeds max_display", nil)
	rec = doJSON(t, r, http.MethodPut, "/api/admin/processes/onboarding/rules", map[string]any{"category": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation", decodeError(t, rec).Error.Code)
}

type fakeTestService struct {
	gotAnswers map[string]json.RawMessage
}

func (f *fakeTestService) Questions(_ context.Context, process string) ([]services.QuestionView, error) {
	if process != "onboarding" {
		return nil, domainagg.NewError(domainagg.CodeProcessMismatch, "op", "mismatch", nil)
	}
	return []services.QuestionView{{Text: "q"}}, nil
}

func (f *fakeTestService) Submit(_ context.Context, _ string, answers map[string]json.RawMessage) (*services.TestResultView, error) {
	f.gotAnswers = answers
	return &services.TestResultView{Correct: 2, Wrong: 1, Total: 4, Score: 1.75, Percentage: 43.75, Status: "FAILED"}, nil
}

func TestTestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeTestService{}
	h := NewTestHandler(svc)
	r := gin.New()
	r.GET("/api/tests/:process/questions", h.ListQuestions)
	r.POST("/api/tests/:process/submit", h.Submit)

	rec := doJSON(t, r, http.MethodGet, "/api/tests/onboarding/questions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/tests/finance/questions", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/tests/onboarding/submit", map[string]any{
		"answers": map[string]any{"q1": "a", "q2": []string{"b"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.gotAnswers, 2)
	require.Contains(t, rec.Body.String(), `"percentage":43.75`)
}
