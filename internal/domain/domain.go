package domain

import (
	"github.com/yungbote/assessment-backend/internal/domain/assessment"
	"github.com/yungbote/assessment-backend/internal/domain/user"
)

const (
	RoleUser  = user.RoleUser
	RoleAdmin = user.RoleAdmin

	QuestionSingleChoice = assessment.QuestionSingleChoice
	QuestionMultiSelect  = assessment.QuestionMultiSelect
	QuestionFreeText     = assessment.QuestionFreeText

	SessionActive    = assessment.SessionActive
	SessionCompleted = assessment.SessionCompleted
	SessionAbandoned = assessment.SessionAbandoned

	ResultModeSession = assessment.ResultModeSession
	ResultModeTest    = assessment.ResultModeTest
	ResultPassed      = assessment.ResultPassed
	ResultFailed      = assessment.ResultFailed
)

type User = user.User

type CategoryKey = assessment.CategoryKey
type QuestionType = assessment.QuestionType
type Question = assessment.Question
type TopicRule = assessment.TopicRule
type RuleLimits = assessment.RuleLimits
type RulesSnapshot = assessment.RulesSnapshot
type SessionStatus = assessment.SessionStatus
type ExamSession = assessment.ExamSession
type SessionQuestion = assessment.SessionQuestion
type SessionAnswer = assessment.SessionAnswer
type ResultMode = assessment.ResultMode
type ResultStatus = assessment.ResultStatus
type AssessmentResult = assessment.AssessmentResult

func NormalizeCategory(raw string) CategoryKey { return assessment.NormalizeCategory(raw) }

func NormalizeProcess(raw string) string { return assessment.NormalizeProcess(raw) }

// Models lists every table the exam engine persists, in migration order.
func Models() []any {
	return []any{
		&User{},
		&Question{},
		&TopicRule{},
		&ExamSession{},
		&SessionQuestion{},
		&SessionAnswer{},
		&AssessmentResult{},
	}
}
