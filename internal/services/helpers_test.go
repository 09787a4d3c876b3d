package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/data/aggregates"
	"github.com/yungbote/assessment-backend/internal/data/repos"
	"github.com/yungbote/assessment-backend/internal/data/repos/testutil"
	types "github.com/yungbote/assessment-backend/internal/domain"
	"github.com/yungbote/assessment-backend/internal/platform/ctxutil"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type serviceFixture struct {
	db  *gorm.DB
	log *logger.Logger

	users     repos.UserRepo
	questions repos.QuestionRepo
	rules     repos.TopicRuleRepo
	sessions  repos.ExamSessionRepo
	slots     repos.SessionQuestionRepo
	answers   repos.SessionAnswerRepo
	results   repos.AssessmentResultRepo
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &serviceFixture{
		db:        db,
		log:       log,
		users:     repos.NewUserRepo(db, log),
		questions: repos.NewQuestionRepo(db, log),
		rules:     repos.NewTopicRuleRepo(db, log),
		sessions:  repos.NewExamSessionRepo(db, log),
		slots:     repos.NewSessionQuestionRepo(db, log),
		answers:   repos.NewSessionAnswerRepo(db, log),
		results:   repos.NewAssessmentResultRepo(db, log),
	}
}

func (f *serviceFixture) examService(locker StartLocker) ExamService {
	agg := aggregates.NewExamSessionAggregate(aggregates.ExamSessionAggregateDeps{
		Base:             aggregates.BaseDeps{DB: f.db, Log: f.log},
		Questions:        f.questions,
		Rules:            f.rules,
		Sessions:         f.sessions,
		SessionQuestions: f.slots,
		Answers:          f.answers,
		Results:          f.results,
	})
	return NewExamService(ExamServiceDeps{
		Log:              f.log,
		Aggregate:        agg,
		Locker:           locker,
		Questions:        f.questions,
		Sessions:         f.sessions,
		SessionQuestions: f.slots,
		Answers:          f.answers,
		Results:          f.results,
	})
}

func asUser(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:  u.ID,
		Process: u.Process,
		Role:    u.Role,
	})
}
