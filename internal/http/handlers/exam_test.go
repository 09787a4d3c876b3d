package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/domain/assessment"
	"github.com/yungbote/assessment-backend/internal/services"
)

type fakeExamService struct {
	startErr    error
	answerErr   error
	completeErr error

	gotProcess string
	gotAnswer  json.RawMessage
	gotLimit   int
}

func (f *fakeExamService) StartSession(_ context.Context, process string) (*services.StartSessionView, error) {
	f.gotProcess = process
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &services.StartSessionView{
		SessionID: uuid.New(),
		Process:   process,
		Status:    string(assessment.SessionActive),
		Questions: []services.QuestionView{{ID: uuid.New(), Category: "basics", Type: "single_choice", Text: "q"}},
		Rules:     assessment.RulesSnapshot{"basics": {Min: 1, Max: 1}},
	}, nil
}

func (f *fakeExamService) RecordAnswer(_ context.Context, _, _ uuid.UUID, answer json.RawMessage) (bool, error) {
	f.gotAnswer = answer
	if f.answerErr != nil {
		return false, f.answerErr
	}
	return true, nil
}

func (f *fakeExamService) CompleteSession(_ context.Context, sessionID uuid.UUID) (*services.CompleteSessionView, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	return &services.CompleteSessionView{SessionID: sessionID, Correct: 1, Total: 3, Score: 33.33, Status: "FAILED"}, nil
}

func (f *fakeExamService) GetSession(_ context.Context, sessionID uuid.UUID) (*services.SessionView, error) {
	return &services.SessionView{SessionID: sessionID}, nil
}

func (f *fakeExamService) ListResults(_ context.Context, limit int) ([]*assessment.AssessmentResult, error) {
	f.gotLimit = limit
	return []*assessment.AssessmentResult{}, nil
}

func examRouter(svc services.ExamService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewExamHandler(svc)
	r := gin.New()
	r.POST("/api/exam/sessions", h.StartSession)
	r.GET("/api/exam/sessions/:id", h.GetSession)
	r.POST("/api/exam/sessions/:id/answers", h.RecordAnswer)
	r.POST("/api/exam/sessions/:id/complete", h.CompleteSession)
	r.GET("/api/results", h.ListResults)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Error struct {
		Message    string                        `json:"message"`
		Code       string                        `json:"code"`
		Violations []domainagg.CategoryViolation `json:"violations"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestExamHandlerStartSession(t *testing.T) {
	svc := &fakeExamService{}
	r := examRouter(svc)

	rec := doJSON(t, r, http.MethodPost, "/api/exam/sessions", map[string]string{"process": "onboarding"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "onboarding", svc.gotProcess)
	require.NotContains(t, rec.Body.String(), "correct_answer")

	var body struct {
		Session services.StartSessionView `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Session.Questions, 1)
	require.Equal(t, 1, body.Session.Rules["basics"].Min)

	rec = doJSON(t, r, http.MethodPost, "/api/exam/sessions", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExamHandlerMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"mismatch", domainagg.NewError(domainagg.CodeProcessMismatch, "op", "nope", nil), http.StatusForbidden, "process_mismatch"},
		{"config", domainagg.NewError(domainagg.CodeConfigurationMissing, "op", "no rules", nil), http.StatusUnprocessableEntity, "configuration_missing"},
		{"unauthorized", domainagg.NewError(domainagg.CodeUnauthorized, "op", "who", nil), http.StatusUnauthorized, "unauthorized"},
		{"storage", domainagg.NewError(domainagg.CodeStorageFailure, "op", "pq: connection refused", nil), http.StatusInternalServerError, "storage_failure"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := examRouter(&fakeExamService{startErr: tc.err})
			rec := doJSON(t, r, http.MethodPost, "/api/exam/sessions", map[string]string{"process": "p"})
			require.Equal(t, tc.status, rec.Code)
			body := decodeError(t, rec)
			require.Equal(t, tc.code, body.Error.Code)
			require.NotContains(t, body.Error.Message, "connection refused")
		})
	}
}

func TestExamHandlerRecordAnswer(t *testing.T) {
	svc := &fakeExamService{}
	r := examRouter(svc)
	path := "/api/exam/sessions/" + uuid.NewString() + "/answers"

	rec := doJSON(t, r, http.MethodPost, path, map[string]any{
		"question_id": uuid.NewString(),
		"answer":      []string{"a", "b"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"accepted":true}`, rec.Body.String())
	require.JSONEq(t, `["a","b"]`, string(svc.gotAnswer))

	rec = doJSON(t, r, http.MethodPost, "/api/exam/sessions/not-a-uuid/answers", map[string]any{"question_id": uuid.NewString()})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, path, map[string]any{"answer": "a"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	svc.answerErr = domainagg.NewError(domainagg.CodeQuestionNotAssigned, "op", "not in session", nil)
	rec = doJSON(t, r, http.MethodPost, path, map[string]any{"question_id": uuid.NewString(), "answer": "a"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "question_not_assigned", decodeError(t, rec).Error.Code)

	svc.answerErr = domainagg.NewError(domainagg.CodeSessionClosed, "op", "closed", nil)
	rec = doJSON(t, r, http.MethodPost, path, map[string]any{"question_id": uuid.NewString(), "answer": "a"})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestExamHandlerCompleteListsViolations(t *testing.T) {
	required := 2
	svc := &fakeExamService{completeErr: domainagg.NewRuleViolation("op", []domainagg.CategoryViolation{
		{Category: "advanced", Answered: 1, Min: 0, Required: &required},
		{Category: "basics", Answered: 0, Min: 1},
	})}
	r := examRouter(svc)

	rec := doJSON(t, r, http.MethodPost, "/api/exam/sessions/"+uuid.NewString()+"/complete", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, "rule_violation", body.Error.Code)
	require.Len(t, body.Error.Violations, 2)
	require.Equal(t, assessment.CategoryKey("advanced"), body.Error.Violations[0].Category)
	require.NotNil(t, body.Error.Violations[0].Required)
	require.Nil(t, body.Error.Violations[1].Required)

	svc.completeErr = nil
	rec = doJSON(t, r, http.MethodPost, "/api/exam/sessions/"+uuid.NewString()+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"correct":1`)
}

func TestExamHandlerListResultsLimit(t *testing.T) {
	svc := &fakeExamService{}
	r := examRouter(svc)

	rec := doJSON(t, r, http.MethodGet, "/api/results?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, svc.gotLimit)

	rec = doJSON(t, r, http.MethodGet, "/api/results?limit=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
