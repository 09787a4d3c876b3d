package aggregates

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/assessment-backend/internal/data/repos"
	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/domain/assessment"
	"github.com/yungbote/assessment-backend/internal/platform/dbctx"
)

const examSessionTable = "exam_session"

type ExamSessionAggregateDeps struct {
	Base BaseDeps

	Questions        repos.QuestionRepo
	Rules            repos.TopicRuleRepo
	Sessions         repos.ExamSessionRepo
	SessionQuestions repos.SessionQuestionRepo
	Answers          repos.SessionAnswerRepo
	Results          repos.AssessmentResultRepo

	Shuffler      assessment.Shuffler
	PassThreshold float64
}

type examSessionAggregate struct {
	deps ExamSessionAggregateDeps
}

func NewExamSessionAggregate(deps ExamSessionAggregateDeps) domainagg.ExamSessionAggregate {
	deps.Base = deps.Base.withDefaults()
	deps.Base.Contract = domainagg.ExamSessionAggregateContract
	if deps.Shuffler == nil {
		deps.Shuffler = assessment.DefaultShuffler()
	}
	if deps.PassThreshold <= 0 {
		deps.PassThreshold = assessment.DefaultPassThreshold
	}
	return &examSessionAggregate{deps: deps}
}

func (a *examSessionAggregate) Contract() domainagg.Contract {
	return domainagg.ExamSessionAggregateContract
}

func (a *examSessionAggregate) configured() bool {
	d := a.deps
	return d.Questions != nil && d.Rules != nil && d.Sessions != nil &&
		d.SessionQuestions != nil && d.Answers != nil && d.Results != nil
}

func (a *examSessionAggregate) StartSession(ctx context.Context, in domainagg.StartSessionInput) (domainagg.StartSessionResult, error) {
	const op = "Exam.Session.Start"
	var out domainagg.StartSessionResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	process := assessment.NormalizeProcess(in.Process)
	if process == "" {
		return out, domainagg.NewError(domainagg.CodeConfigurationMissing, op, "process is empty", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "exam session aggregate repos not configured", nil)
	}
	now := in.Now.UTC()
	if in.Now.IsZero() {
		now = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		rules, err := a.deps.Rules.FindByProcess(dbc, process)
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			return domainagg.NewError(domainagg.CodeConfigurationMissing, op, fmt.Sprintf("no topic rules for process %q", process), nil)
		}
		bank, err := a.deps.Questions.FindByProcess(dbc, process, "")
		if err != nil {
			return err
		}
		pool := assessment.PartitionByCategory(bank)
		snap := assessment.BuildSnapshot(rules, assessment.Counts(pool))
		if displayTotal(snap) == 0 {
			return domainagg.NewError(domainagg.CodeConfigurationMissing, op, fmt.Sprintf("no questions available for process %q", process), nil)
		}

		active, err := a.deps.Sessions.LockActive(dbc, in.UserID, process)
		if err != nil {
			return err
		}
		if active != nil {
			stored, decodeErr := assessment.DecodeRulesSnapshot(active.RulesSnapshot)
			if decodeErr == nil && stored.Equal(snap) {
				views, err := a.loadViews(dbc, active.ID)
				if err != nil {
					return err
				}
				out = domainagg.StartSessionResult{
					Session:   active,
					Questions: views,
					Snapshot:  stored,
					Resumed:   true,
				}
				return nil
			}
			ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, examSessionTable, active.ID,
				[]string{string(assessment.SessionActive)},
				map[string]any{
					"status":     assessment.SessionAbandoned,
					"ended_at":   now,
					"updated_at": now,
				})
			if err != nil {
				return err
			}
			if err := RequireCASSuccess(ok, "active session changed while abandoning"); err != nil {
				return err
			}
			abandoned := active.ID
			out.AbandonedSessionID = &abandoned
		}

		encoded, err := snap.Encode()
		if err != nil {
			return err
		}
		sess := &assessment.ExamSession{
			ID:            uuid.New(),
			UserID:        in.UserID,
			Process:       process,
			Status:        assessment.SessionActive,
			RulesSnapshot: encoded,
			StartedAt:     now,
		}
		if err := a.deps.Sessions.Create(dbc, sess); err != nil {
			return err
		}

		selected := assessment.SelectQuestions(rules, pool, a.deps.Shuffler)
		rows := make([]*assessment.SessionQuestion, 0, len(selected))
		views := make([]domainagg.SessionQuestionView, 0, len(selected))
		for _, s := range selected {
			rows = append(rows, &assessment.SessionQuestion{
				SessionID:  sess.ID,
				QuestionID: s.Question.ID,
				Category:   s.Category,
				Position:   s.Position,
			})
			views = append(views, domainagg.SessionQuestionView{
				Position: s.Position,
				Category: s.Category,
				Question: s.Question,
			})
		}
		if _, err := a.deps.SessionQuestions.Create(dbc, rows); err != nil {
			return err
		}

		out.Session = sess
		out.Questions = views
		out.Snapshot = snap
		out.Resumed = false
		return nil
	})
	if err != nil {
		return domainagg.StartSessionResult{}, err
	}
	return out, nil
}

func (a *examSessionAggregate) loadViews(dbc dbctx.Context, sessionID uuid.UUID) ([]domainagg.SessionQuestionView, error) {
	rows, err := a.deps.SessionQuestions.ListBySession(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.QuestionID)
	}
	qs, err := a.deps.Questions.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*assessment.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}
	out := make([]domainagg.SessionQuestionView, 0, len(rows))
	for _, r := range rows {
		q := byID[r.QuestionID]
		if q == nil {
			return nil, fmt.Errorf("session %s references missing question %s", sessionID, r.QuestionID)
		}
		out = append(out, domainagg.SessionQuestionView{
			Position: r.Position,
			Category: r.Category,
			Question: q,
		})
	}
	return out, nil
}

func (a *examSessionAggregate) RecordAnswer(ctx context.Context, in domainagg.RecordAnswerInput) (domainagg.RecordAnswerResult, error) {
	const op = "Exam.Session.RecordAnswer"
	var out domainagg.RecordAnswerResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.SessionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing session_id", nil)
	}
	if in.QuestionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing question_id", nil)
	}
	answer := json.RawMessage(strings.TrimSpace(string(in.Answer)))
	if len(answer) == 0 {
		answer = json.RawMessage("null")
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "exam session aggregate repos not configured", nil)
	}
	now := in.Now.UTC()
	if in.Now.IsZero() {
		now = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sess, err := a.deps.Sessions.ShareByID(dbc, in.SessionID)
		if err != nil {
			return err
		}
		if err := requireOwnedActive(op, sess, in.SessionID, in.UserID); err != nil {
			return err
		}
		slot, err := a.deps.SessionQuestions.Get(dbc, in.SessionID, in.QuestionID)
		if err != nil {
			return err
		}
		if slot == nil {
			return domainagg.NewError(domainagg.CodeQuestionNotAssigned, op, fmt.Sprintf("question %s is not part of session %s", in.QuestionID, in.SessionID), nil)
		}
		if !json.Valid(answer) {
			return domainagg.NewError(domainagg.CodeValidation, op, "answer is not valid json", nil)
		}
		q, err := a.deps.Questions.GetByID(dbc, in.QuestionID)
		if err != nil {
			return err
		}
		if q == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("question not found: %s", in.QuestionID), nil)
		}

		correct := assessment.Grade(q, answer)
		if err := a.deps.Answers.Upsert(dbc, &assessment.SessionAnswer{
			SessionID:  in.SessionID,
			QuestionID: in.QuestionID,
			Category:   slot.Category,
			Answer:     datatypes.JSON(answer),
			IsCorrect:  correct,
			UpdatedAt:  now,
		}); err != nil {
			return err
		}
		out = domainagg.RecordAnswerResult{
			Accepted:   true,
			SessionID:  in.SessionID,
			QuestionID: in.QuestionID,
			IsCorrect:  correct,
			RecordedAt: now,
		}
		return nil
	})
	if err != nil {
		return domainagg.RecordAnswerResult{}, err
	}
	return out, nil
}

func (a *examSessionAggregate) CompleteSession(ctx context.Context, in domainagg.CompleteSessionInput) (domainagg.CompleteSessionResult, error) {
	const op = "Exam.Session.Complete"
	var out domainagg.CompleteSessionResult
	if in.UserID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	if in.SessionID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing session_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "exam session aggregate repos not configured", nil)
	}
	now := in.Now.UTC()
	if in.Now.IsZero() {
		now = time.Now().UTC()
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		sess, err := a.deps.Sessions.LockByID(dbc, in.SessionID)
		if err != nil {
			return err
		}
		if err := requireOwnedActive(op, sess, in.SessionID, in.UserID); err != nil {
			return err
		}
		snap, err := assessment.DecodeRulesSnapshot(sess.RulesSnapshot)
		if err != nil {
			return fmt.Errorf("decode rules snapshot: %w", err)
		}
		answers, err := a.deps.Answers.ListBySession(dbc, sess.ID)
		if err != nil {
			return err
		}
		total, err := a.deps.SessionQuestions.CountBySession(dbc, sess.ID)
		if err != nil {
			return err
		}

		t := tallyAnswers(snap, answers)
		if violations := checkCompletion(snap, t.perCategory); len(violations) > 0 {
			return domainagg.NewRuleViolation(op, violations)
		}

		score := assessment.ScoreSession(t.correct, t.answered-t.correct, int(total), a.deps.PassThreshold)
		raw, err := json.Marshal(t.raw)
		if err != nil {
			return err
		}
		sessionID := sess.ID
		res := &assessment.AssessmentResult{
			ID:         uuid.New(),
			UserID:     sess.UserID,
			Process:    sess.Process,
			SessionID:  &sessionID,
			Mode:       assessment.ResultModeSession,
			Score:      score.Score,
			Correct:    score.Correct,
			Wrong:      score.Wrong,
			Total:      score.Total,
			Percentage: score.Percentage,
			Status:     score.Status,
			Answers:    datatypes.JSON(raw),
			CreatedAt:  now,
		}
		if err := a.deps.Results.Create(dbc, res); err != nil {
			return err
		}

		ok, err := a.deps.Base.CASGuard.UpdateByStatus(dbc, examSessionTable, sess.ID,
			[]string{string(assessment.SessionActive)},
			map[string]any{
				"status":     assessment.SessionCompleted,
				"ended_at":   now,
				"updated_at": now,
			})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "session changed while completing"); err != nil {
			return err
		}

		out = domainagg.CompleteSessionResult{
			SessionID:   sess.ID,
			ResultID:    res.ID,
			Score:       score.Score,
			Correct:     score.Correct,
			Wrong:       score.Wrong,
			Total:       score.Total,
			Status:      score.Status,
			CompletedAt: now,
		}
		return nil
	})
	if err != nil {
		return domainagg.CompleteSessionResult{}, err
	}
	return out, nil
}

func requireOwnedActive(op string, sess *assessment.ExamSession, sessionID, userID uuid.UUID) error {
	if sess == nil || sess.ID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("session not found: %s", sessionID), nil)
	}
	if sess.UserID != userID {
		return domainagg.NewError(domainagg.CodeForbidden, op, "session belongs to another user", nil)
	}
	if sess.Status != assessment.SessionActive {
		return domainagg.NewError(domainagg.CodeSessionClosed, op, fmt.Sprintf("session is %s", sess.Status), nil)
	}
	return nil
}

type answerTally struct {
	perCategory map[assessment.CategoryKey]int
	answered    int
	correct     int
	raw         map[string]json.RawMessage
}

// tallyAnswers counts non-blank answers. Blank answers stay in the raw map but
// never count toward a category or the score.
func tallyAnswers(snap assessment.RulesSnapshot, answers []*assessment.SessionAnswer) answerTally {
	t := answerTally{
		perCategory: map[assessment.CategoryKey]int{},
		raw:         map[string]json.RawMessage{},
	}
	for _, ans := range answers {
		if ans == nil {
			continue
		}
		t.raw[ans.QuestionID.String()] = json.RawMessage(ans.Answer)
		if assessment.AnswerIsBlank(json.RawMessage(ans.Answer)) {
			continue
		}
		t.answered++
		if ans.IsCorrect {
			t.correct++
		}
		if _, ok := snap[ans.Category]; ok {
			t.perCategory[ans.Category]++
		}
	}
	return t
}

// checkCompletion returns every violated snapshot category, sorted by key.
func checkCompletion(snap assessment.RulesSnapshot, tally map[assessment.CategoryKey]int) []domainagg.CategoryViolation {
	keys := make([]assessment.CategoryKey, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var out []domainagg.CategoryViolation
	for _, k := range keys {
		limits := snap[k]
		answered := tally[k]
		if limits.Required != nil {
			if answered != *limits.Required {
				req := *limits.Required
				out = append(out, domainagg.CategoryViolation{Category: k, Answered: answered, Min: limits.Min, Required: &req})
			}
			continue
		}
		if answered < limits.Min {
			out = append(out, domainagg.CategoryViolation{Category: k, Answered: answered, Min: limits.Min})
		}
	}
	return out
}

func displayTotal(snap assessment.RulesSnapshot) int {
	n := 0
	for _, l := range snap {
		n += l.Max
	}
	return n
}
