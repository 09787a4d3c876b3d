package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/data/repos"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type Repos struct {
	User             repos.UserRepo
	Question         repos.QuestionRepo
	TopicRule        repos.TopicRuleRepo
	ExamSession      repos.ExamSessionRepo
	SessionQuestion  repos.SessionQuestionRepo
	SessionAnswer    repos.SessionAnswerRepo
	AssessmentResult repos.AssessmentResultRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:             repos.NewUserRepo(db, log),
		Question:         repos.NewQuestionRepo(db, log),
		TopicRule:        repos.NewTopicRuleRepo(db, log),
		ExamSession:      repos.NewExamSessionRepo(db, log),
		SessionQuestion:  repos.NewSessionQuestionRepo(db, log),
		SessionAnswer:    repos.NewSessionAnswerRepo(db, log),
		AssessmentResult: repos.NewAssessmentResultRepo(db, log),
	}
}
