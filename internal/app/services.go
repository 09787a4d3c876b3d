package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/assessment-backend/internal/domain/aggregates"
	"github.com/yungbote/assessment-backend/internal/observability"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
	"github.com/yungbote/assessment-backend/internal/services"
)

type Services struct {
	ExamAggregate domainagg.ExamSessionAggregate

	Token  services.TokenService
	User   services.UserService
	Exam   services.ExamService
	Test   services.TestService
	Rules  services.RuleService
	Import services.BankImporter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	examAgg := aggregates.NewExamSessionAggregate(aggregates.ExamSessionAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Questions:        repos.Question,
		Rules:            repos.TopicRule,
		Sessions:         repos.ExamSession,
		SessionQuestions: repos.SessionQuestion,
		Answers:          repos.SessionAnswer,
		Results:          repos.AssessmentResult,
		PassThreshold:    cfg.PassThreshold,
	})

	contract := examAgg.Contract()
	log.Info("Wired aggregate",
		"aggregate", contract.Name,
		"write_tx", contract.WriteTxOwnership,
		"read_policy", contract.ReadPolicy,
	)

	locker := services.NewNoopStartLocker()
	if clients.Redis != nil {
		locker = services.NewRedisStartLocker(log, clients.Redis, cfg.StartLockTTL)
	}

	return Services{
		ExamAggregate: examAgg,
		Token:         services.NewTokenService(log, repos.User, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		User:          services.NewUserService(log, repos.User),
		Exam: services.NewExamService(services.ExamServiceDeps{
			Log:              log,
			Aggregate:        examAgg,
			Locker:           locker,
			Questions:        repos.Question,
			Sessions:         repos.ExamSession,
			SessionQuestions: repos.SessionQuestion,
			Answers:          repos.SessionAnswer,
			Results:          repos.AssessmentResult,
		}),
		Test: services.NewTestService(services.TestServiceDeps{
			Log:           log,
			Questions:     repos.Question,
			Results:       repos.AssessmentResult,
			NegativeMark:  cfg.NegativeMark,
			PassThreshold: cfg.PassThreshold,
		}),
		Rules:  services.NewRuleService(log, repos.TopicRule),
		Import: services.NewBankImporter(db, log, repos.User, repos.TopicRule, repos.Question),
	}
}
