package app

import (
	httpapi "github.com/yungbote/assessment-backend/internal/http"
	httpH "github.com/yungbote/assessment-backend/internal/http/handlers"
	httpMW "github.com/yungbote/assessment-backend/internal/http/middleware"
	"github.com/yungbote/assessment-backend/internal/observability"
	"github.com/yungbote/assessment-backend/internal/platform/envutil"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	User   *httpH.UserHandler
	Exam   *httpH.ExamHandler
	Test   *httpH.TestHandler
	Rule   *httpH.RuleHandler
}

func wireHandlers(log *logger.Logger, services Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		User:   httpH.NewUserHandler(services.User),
		Exam:   httpH.NewExamHandler(services.Exam),
		Test:   httpH.NewTestHandler(services.Test),
		Rule:   httpH.NewRuleHandler(services.Rules),
	}
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Token),
	}
}

func wireServer(cfg Config, log *logger.Logger, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *httpapi.Server {
	log.Info("Wiring server...")
	return httpapi.NewServer(httpapi.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.OtelServiceName,
		TracingEnabled: envutil.Bool("OTEL_ENABLED", false),
		CORSOrigins:    cfg.CORSOrigins,

		AuthMiddleware: middleware.Auth,
		UserHandler:    handlers.User,
		ExamHandler:    handlers.Exam,
		TestHandler:    handlers.Test,
		RuleHandler:    handlers.Rule,
		HealthHandler:  handlers.Health,
	})
}
