package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/yungbote/assessment-backend/internal/data/repos"
	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/domain/assessment"
	"github.com/yungbote/assessment-backend/internal/observability"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type TestResultView struct {
	ResultID   uuid.UUID `json:"result_id"`
	Score      float64   `json:"score"`
	Percentage float64   `json:"percentage"`
	Correct    int       `json:"correct"`
	Wrong      int       `json:"wrong"`
	Total      int       `json:"total"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// TestService is the sessionless quiz flow scored with negative marking.
type TestService interface {
	Questions(ctx context.Context, process string) ([]QuestionView, error)
	Submit(ctx context.Context, process string, answers map[string]json.RawMessage) (*TestResultView, error)
}

type TestServiceDeps struct {
	Log           *logger.Logger
	Questions     repos.QuestionRepo
	Results       repos.AssessmentResultRepo
	NegativeMark  float64
	PassThreshold float64
}

type testService struct {
	log    *logger.Logger
	deps   TestServiceDeps
	tracer trace.Tracer
}

func NewTestService(deps TestServiceDeps) TestService {
	if deps.NegativeMark < 0 {
		deps.NegativeMark = assessment.DefaultNegativeMark
	}
	if deps.PassThreshold <= 0 {
		deps.PassThreshold = assessment.DefaultPassThreshold
	}
	return &testService{
		log:    deps.Log.With("service", "TestService"),
		deps:   deps,
		tracer: observability.Tracer("assessment/services/test"),
	}
}

func (s *testService) bank(ctx context.Context, op, process string) (string, []*assessment.Question, error) {
	rd, err := requireIdentity(ctx, op)
	if err != nil {
		return "", nil, err
	}
	canonical, err := requireProcess(rd, process, op)
	if err != nil {
		return "", nil, err
	}
	bank, err := s.deps.Questions.FindByProcess(dbctx.Context{Ctx: ctx}, canonical, "")
	if err != nil {
		return "", nil, domainagg.NewError(domainagg.CodeStorageFailure, op, "load bank", err)
	}
	if len(bank) == 0 {
		return "", nil, domainagg.NewError(domainagg.CodeConfigurationMissing, op, "no questions configured for process", nil)
	}
	return canonical, bank, nil
}

func (s *testService) Questions(ctx context.Context, process string) ([]QuestionView, error) {
	_, bank, err := s.bank(ctx, "Test.Questions", process)
	if err != nil {
		return nil, err
	}
	out := make([]QuestionView, 0, len(bank))
	for i, q := range bank {
		out = append(out, questionView(i, q))
	}
	return out, nil
}

// Submit grades answers against the live bank. Ids outside the bank are
// ignored and blank answers count as unanswered, not wrong.
func (s *testService) Submit(ctx context.Context, process string, answers map[string]json.RawMessage) (*TestResultView, error) {
	const op = "Test.Submit"
	ctx, span := s.tracer.Start(ctx, "test.submit")
	defer span.End()

	canonical, bank, err := s.bank(ctx, op, process)
	if err != nil {
		return nil, spanError(span, err)
	}
	rd, _ := requireIdentity(ctx, op)

	byID := make(map[uuid.UUID]*assessment.Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}
	kept := make(map[string]json.RawMessage, len(answers))
	correct, wrong := 0, 0
	for rawID, answer := range answers {
		id, perr := uuid.Parse(rawID)
		if perr != nil {
			err := domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("invalid question id %q", rawID), perr)
			return nil, spanError(span, err)
		}
		q, ok := byID[id]
		if !ok {
			continue
		}
		kept[id.String()] = answer
		if assessment.AnswerIsBlank(answer) {
			continue
		}
		if assessment.Grade(q, answer) {
			correct++
		} else {
			wrong++
		}
	}

	score := assessment.ScoreNegativeMarking(correct, wrong, len(bank), s.deps.NegativeMark, s.deps.PassThreshold)
	rawAnswers, err := json.Marshal(kept)
	if err != nil {
		return nil, spanError(span, domainagg.NewError(domainagg.CodeInternal, op, "encode answers", err))
	}
	res := &assessment.AssessmentResult{
		UserID:     rd.UserID,
		Process:    canonical,
		Mode:       assessment.ResultModeTest,
		Score:      score.Score,
		Correct:    score.Correct,
		Wrong:      score.Wrong,
		Total:      score.Total,
		Percentage: score.Percentage,
		Status:     score.Status,
		Answers:    datatypes.JSON(rawAnswers),
	}
	if err := s.deps.Results.Create(dbctx.Context{Ctx: ctx}, res); err != nil {
		return nil, spanError(span, domainagg.NewError(domainagg.CodeStorageFailure, op, "write result", err))
	}

	span.SetAttributes(
		attribute.String("exam.process", canonical),
		attribute.Float64("test.percentage", score.Percentage),
	)
	observability.Current().IncResult(canonical, string(assessment.ResultModeTest), string(score.Status))
	s.log.Info("Test submitted",
		"user_id", rd.UserID,
		"process", canonical,
		"correct", score.Correct,
		"wrong", score.Wrong,
		"total", score.Total,
		"status", score.Status,
	)
	return &TestResultView{
		ResultID:   res.ID,
		Score:      score.Score,
		Percentage: score.Percentage,
		Correct:    score.Correct,
		Wrong:      score.Wrong,
		Total:      score.Total,
		Status:     string(score.Status),
		CreatedAt:  res.CreatedAt,
	}, nil
}
