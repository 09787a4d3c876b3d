package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/data/repos/assessment"
	"github.com/yungbote/assessment-backend/internal/data/repos/user"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type QuestionRepo = assessment.QuestionRepo
type TopicRuleRepo = assessment.TopicRuleRepo
type ExamSessionRepo = assessment.ExamSessionRepo
type SessionQuestionRepo = assessment.SessionQuestionRepo
type SessionAnswerRepo = assessment.SessionAnswerRepo
type AssessmentResultRepo = assessment.AssessmentResultRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return assessment.NewQuestionRepo(db, baseLog)
}
func NewTopicRuleRepo(db *gorm.DB, baseLog *logger.Logger) TopicRuleRepo {
	return assessment.NewTopicRuleRepo(db, baseLog)
}
func NewExamSessionRepo(db *gorm.DB, baseLog *logger.Logger) ExamSessionRepo {
	return assessment.NewExamSessionRepo(db, baseLog)
}
func NewSessionQuestionRepo(db *gorm.DB, baseLog *logger.Logger) SessionQuestionRepo {
	return assessment.NewSessionQuestionRepo(db, baseLog)
}
func NewSessionAnswerRepo(db *gorm.DB, baseLog *logger.Logger) SessionAnswerRepo {
	return assessment.NewSessionAnswerRepo(db, baseLog)
}
func NewAssessmentResultRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentResultRepo {
	return assessment.NewAssessmentResultRepo(db, baseLog)
}
