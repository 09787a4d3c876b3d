package aggregates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/assessment-backend/internal/domain/assessment"
)

var ExamSessionAggregateContract = Contract{
	Name:             "Exam.SessionAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Owns session creation/resume/abandon, answer scoping and completion gating against the frozen rules snapshot.",
}

// ExamSessionAggregate owns exam session lifecycle invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeForbidden, CodeConfigurationMissing, CodeSessionClosed,
// CodeQuestionNotAssigned, CodeRuleViolation, CodeConflict, CodeRetryable, CodeStorageFailure.
type ExamSessionAggregate interface {
	Aggregate

	// StartSession resumes the caller's ACTIVE session when its snapshot still matches the live
	// rules, otherwise abandons it and atomically creates a new session with a fresh selection.
	StartSession(ctx context.Context, in StartSessionInput) (StartSessionResult, error)

	// RecordAnswer upserts the answer for one question of an ACTIVE session.
	RecordAnswer(ctx context.Context, in RecordAnswerInput) (RecordAnswerResult, error)

	// CompleteSession validates answer tallies against the snapshot, then writes the result
	// and closes the session in one transaction.
	CompleteSession(ctx context.Context, in CompleteSessionInput) (CompleteSessionResult, error)
}

type StartSessionInput struct {
	UserID  uuid.UUID
	Process string
	Now     time.Time
}

type StartSessionResult struct {
	Session   *assessment.ExamSession
	Questions []SessionQuestionView
	Snapshot  assessment.RulesSnapshot
	Resumed   bool
	// AbandonedSessionID is set when a stale ACTIVE session was superseded.
	AbandonedSessionID *uuid.UUID
}

// SessionQuestionView is a frozen session question joined with its bank content.
type SessionQuestionView struct {
	Position int
	Category assessment.CategoryKey
	Question *assessment.Question
}

type RecordAnswerInput struct {
	UserID     uuid.UUID
	SessionID  uuid.UUID
	QuestionID uuid.UUID
	Answer     json.RawMessage
	Now        time.Time
}

type RecordAnswerResult struct {
	Accepted   bool
	SessionID  uuid.UUID
	QuestionID uuid.UUID
	IsCorrect  bool
	RecordedAt time.Time
}

type CompleteSessionInput struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Now       time.Time
}

type CompleteSessionResult struct {
	SessionID   uuid.UUID
	ResultID    uuid.UUID
	Score       float64
	Correct     int
	Wrong       int
	Total       int
	Status      assessment.ResultStatus
	CompletedAt time.Time
}
