package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/assessment-backend/internal/data/repos"
	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/domain/assessment"
	"github.com/yungbote/assessment-backend/internal/observability"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

// QuestionView is the client-facing shape of a question. It never carries
// the correct answer.
type QuestionView struct {
	ID       uuid.UUID       `json:"id"`
	Position int             `json:"position"`
	Category string          `json:"category"`
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Options  json.RawMessage `json:"options,omitempty"`
}

type StartSessionView struct {
	SessionID uuid.UUID                `json:"session_id"`
	Process   string                   `json:"process"`
	Status    string                   `json:"status"`
	StartedAt time.Time                `json:"started_at"`
	Resumed   bool                     `json:"resumed"`
	Questions []QuestionView           `json:"questions"`
	Rules     assessment.RulesSnapshot `json:"rules"`
}

type CompleteSessionView struct {
	SessionID   uuid.UUID `json:"session_id"`
	ResultID    uuid.UUID `json:"result_id"`
	Score       float64   `json:"score"`
	Correct     int       `json:"correct"`
	Wrong       int       `json:"wrong"`
	Total       int       `json:"total"`
	Status      string    `json:"status"`
	CompletedAt time.Time `json:"completed_at"`
}

// SessionView is the resume read model of a session.
type SessionView struct {
	SessionID uuid.UUID                      `json:"session_id"`
	Process   string                         `json:"process"`
	Status    string                         `json:"status"`
	StartedAt time.Time                      `json:"started_at"`
	EndedAt   *time.Time                     `json:"ended_at,omitempty"`
	Questions []QuestionView                 `json:"questions"`
	Rules     assessment.RulesSnapshot       `json:"rules"`
	Answered  map[assessment.CategoryKey]int `json:"answered"`
	Answers   map[string]json.RawMessage     `json:"answers"`
}

type ExamService interface {
	StartSession(ctx context.Context, process string) (*StartSessionView, error)
	RecordAnswer(ctx context.Context, sessionID, questionID uuid.UUID, answer json.RawMessage) (bool, error)
	CompleteSession(ctx context.Context, sessionID uuid.UUID) (*CompleteSessionView, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionView, error)
	ListResults(ctx context.Context, limit int) ([]*assessment.AssessmentResult, error)
}

type ExamServiceDeps struct {
	Log       *logger.Logger
	Aggregate domainagg.ExamSessionAggregate
	Locker    StartLocker

	Questions        repos.QuestionRepo
	Sessions         repos.ExamSessionRepo
	SessionQuestions repos.SessionQuestionRepo
	Answers          repos.SessionAnswerRepo
	Results          repos.AssessmentResultRepo
}

// startCallTimeout bounds one shared StartSession run, lock wait included.
const startCallTimeout = 30 * time.Second

type examService struct {
	log    *logger.Logger
	deps   ExamServiceDeps
	tracer trace.Tracer
	starts singleflight.Group
	now    func() time.Time
}

func NewExamService(deps ExamServiceDeps) ExamService {
	if deps.Locker == nil {
		deps.Locker = NewNoopStartLocker()
	}
	return &examService{
		log:    deps.Log.With("service", "ExamService"),
		deps:   deps,
		tracer: observability.Tracer("assessment/services/exam"),
		now:    time.Now,
	}
}

func (s *examService) StartSession(ctx context.Context, process string) (*StartSessionView, error) {
	const op = "Exam.StartSession"
	ctx, span := s.tracer.Start(ctx, "exam.start")
	defer span.End()

	rd, err := requireIdentity(ctx, op)
	if err != nil {
		return nil, spanError(span, err)
	}
	canonical, err := requireProcess(rd, process, op)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.String("exam.process", canonical))

	key := startLockKey(rd.UserID, canonical)
	// The shared run ignores the first caller's cancellation; each caller
	// waits on its own ctx.
	ch := s.starts.DoChan(key, func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), startCallTimeout)
		defer cancel()
		release, lockErr := s.deps.Locker.Acquire(sharedCtx, key)
		if lockErr != nil {
			return nil, domainagg.NewError(domainagg.CodeRetryable, op, "start lock interrupted", lockErr)
		}
		defer release()
		return s.startOnce(sharedCtx, rd.UserID, canonical)
	})

	var r singleflight.Result
	select {
	case <-ctx.Done():
		return nil, spanError(span, domainagg.NewError(domainagg.CodeRetryable, op, "start request canceled", ctx.Err()))
	case r = <-ch:
	}
	if r.Err != nil {
		return nil, spanError(span, r.Err)
	}
	res := r.Val.(domainagg.StartSessionResult)
	span.SetAttributes(
		attribute.String("exam.session_id", res.Session.ID.String()),
		attribute.Bool("exam.resumed", res.Resumed),
		attribute.Bool("exam.shared", r.Shared),
	)
	return startView(res), nil
}

// startOnce runs the aggregate and re-runs it once when a concurrent start
// won the active-session race; the second run resumes the winner.
func (s *examService) startOnce(ctx context.Context, userID uuid.UUID, process string) (domainagg.StartSessionResult, error) {
	in := domainagg.StartSessionInput{UserID: userID, Process: process, Now: s.now()}
	res, err := s.deps.Aggregate.StartSession(ctx, in)
	if domainagg.IsCode(err, domainagg.CodeConflict) {
		s.log.Warn("Concurrent session start, retrying", "user_id", userID, "process", process)
		in.Now = s.now()
		res, err = s.deps.Aggregate.StartSession(ctx, in)
	}
	if err != nil {
		s.log.Warn("Start session failed", "user_id", userID, "process", process, "code", domainagg.CodeOf(err), "error", err)
		return res, err
	}

	m := observability.Current()
	if res.AbandonedSessionID != nil {
		m.IncExamEvent(process, observability.ExamEventAbandoned)
		s.log.Info("Abandoned stale session", "user_id", userID, "process", process, "session_id", *res.AbandonedSessionID)
	}
	if res.Resumed {
		m.IncExamEvent(process, observability.ExamEventResumed)
	} else {
		m.IncExamEvent(process, observability.ExamEventStarted)
	}
	s.log.Info("Session ready",
		"user_id", userID,
		"process", process,
		"session_id", res.Session.ID,
		"resumed", res.Resumed,
		"questions", len(res.Questions),
	)
	return res, nil
}

func (s *examService) RecordAnswer(ctx context.Context, sessionID, questionID uuid.UUID, answer json.RawMessage) (bool, error) {
	const op = "Exam.RecordAnswer"
	ctx, span := s.tracer.Start(ctx, "exam.answer")
	defer span.End()

	rd, err := requireIdentity(ctx, op)
	if err != nil {
		return false, spanError(span, err)
	}
	span.SetAttributes(
		attribute.String("exam.session_id", sessionID.String()),
		attribute.String("exam.question_id", questionID.String()),
	)
	res, err := s.deps.Aggregate.RecordAnswer(ctx, domainagg.RecordAnswerInput{
		UserID:     rd.UserID,
		SessionID:  sessionID,
		QuestionID: questionID,
		Answer:     answer,
		Now:        s.now(),
	})
	if err != nil {
		s.log.Debug("Answer rejected", "user_id", rd.UserID, "session_id", sessionID, "code", domainagg.CodeOf(err))
		return false, spanError(span, err)
	}
	observability.Current().IncAnswerRecorded(rd.Process, res.IsCorrect)
	return res.Accepted, nil
}

func (s *examService) CompleteSession(ctx context.Context, sessionID uuid.UUID) (*CompleteSessionView, error) {
	const op = "Exam.CompleteSession"
	ctx, span := s.tracer.Start(ctx, "exam.complete")
	defer span.End()

	rd, err := requireIdentity(ctx, op)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.String("exam.session_id", sessionID.String()))
	res, err := s.deps.Aggregate.CompleteSession(ctx, domainagg.CompleteSessionInput{
		UserID:    rd.UserID,
		SessionID: sessionID,
		Now:       s.now(),
	})
	m := observability.Current()
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeRuleViolation) {
			m.IncExamEvent(rd.Process, observability.ExamEventViolated)
			s.log.Info("Completion blocked by rules",
				"user_id", rd.UserID,
				"session_id", sessionID,
				"violations", len(domainagg.ViolationsOf(err)),
			)
		}
		return nil, spanError(span, err)
	}
	m.IncExamEvent(rd.Process, observability.ExamEventCompleted)
	m.IncResult(rd.Process, string(assessment.ResultModeSession), string(res.Status))
	s.log.Info("Session completed",
		"user_id", rd.UserID,
		"session_id", sessionID,
		"score", res.Score,
		"status", res.Status,
	)
	return &CompleteSessionView{
		SessionID:   res.SessionID,
		ResultID:    res.ResultID,
		Score:       res.Score,
		Correct:     res.Correct,
		Wrong:       res.Wrong,
		Total:       res.Total,
		Status:      string(res.Status),
		CompletedAt: res.CompletedAt,
	}, nil
}

func (s *examService) GetSession(ctx context.Context, sessionID uuid.UUID) (*SessionView, error) {
	const op = "Exam.GetSession"
	rd, err := requireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	sess, err := s.deps.Sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeStorageFailure, op, "load session", err)
	}
	if sess == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "session not found", nil)
	}
	if sess.UserID != rd.UserID {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "session belongs to another user", nil)
	}
	snap, err := assessment.DecodeRulesSnapshot(sess.RulesSnapshot)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "decode rules snapshot", err)
	}
	slots, err := s.deps.SessionQuestions.ListBySession(dbc, sess.ID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeStorageFailure, op, "load session questions", err)
	}
	ids := make([]uuid.UUID, 0, len(slots))
	for _, sq := range slots {
		ids = append(ids, sq.QuestionID)
	}
	bank, err := s.deps.Questions.GetByIDs(dbc, ids)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeStorageFailure, op, "load questions", err)
	}
	byID := make(map[uuid.UUID]*assessment.Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}
	answers, err := s.deps.Answers.ListBySession(dbc, sess.ID)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeStorageFailure, op, "load answers", err)
	}

	out := &SessionView{
		SessionID: sess.ID,
		Process:   sess.Process,
		Status:    string(sess.Status),
		StartedAt: sess.StartedAt,
		EndedAt:   sess.EndedAt,
		Questions: make([]QuestionView, 0, len(slots)),
		Rules:     snap,
		Answered:  make(map[assessment.CategoryKey]int, len(snap)),
		Answers:   make(map[string]json.RawMessage, len(answers)),
	}
	for key := range snap {
		out.Answered[key] = 0
	}
	for _, sq := range slots {
		if q := byID[sq.QuestionID]; q != nil {
			out.Questions = append(out.Questions, questionView(sq.Position, q))
		}
	}
	for _, a := range answers {
		raw := json.RawMessage(a.Answer)
		out.Answers[a.QuestionID.String()] = raw
		if assessment.AnswerIsBlank(raw) {
			continue
		}
		if _, ok := snap[a.Category]; ok {
			out.Answered[a.Category]++
		}
	}
	return out, nil
}

func (s *examService) ListResults(ctx context.Context, limit int) ([]*assessment.AssessmentResult, error) {
	const op = "Exam.ListResults"
	rd, err := requireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}
	out, err := s.deps.Results.ListByUser(dbctx.Context{Ctx: ctx}, rd.UserID, limit)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeStorageFailure, op, "list results", err)
	}
	return out, nil
}

func startView(res domainagg.StartSessionResult) *StartSessionView {
	out := &StartSessionView{
		SessionID: res.Session.ID,
		Process:   res.Session.Process,
		Status:    string(res.Session.Status),
		StartedAt: res.Session.StartedAt,
		Resumed:   res.Resumed,
		Questions: make([]QuestionView, 0, len(res.Questions)),
		Rules:     res.Snapshot,
	}
	views := append([]domainagg.SessionQuestionView(nil), res.Questions...)
	sort.SliceStable(views, func(i, j int) bool { return views[i].Position < views[j].Position })
	for _, v := range views {
		if v.Question == nil {
			continue
		}
		out.Questions = append(out.Questions, questionView(v.Position, v.Question))
	}
	return out
}

func questionView(position int, q *assessment.Question) QuestionView {
	var opts json.RawMessage
	if len(q.Options) > 0 {
		opts = json.RawMessage(q.Options)
	}
	return QuestionView{
		ID:       q.ID,
		Position: position,
		Category: q.Category,
		Type:     string(q.Type),
		Text:     q.Text,
		Options:  opts,
	}
}

func spanError(span trace.Span, err error) error {
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(domainagg.CodeOf(err)))
	return err
}
