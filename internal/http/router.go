package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/yungbote/assessment-backend/internal/domain"
	httpH "github.com/yungbote/assessment-backend/internal/http/handlers"
	httpMW "github.com/yungbote/assessment-backend/internal/http/middleware"
	"github.com/yungbote/assessment-backend/internal/observability"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler
	ExamHandler    *httpH.ExamHandler
	TestHandler    *httpH.TestHandler
	RuleHandler    *httpH.RuleHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = observability.DefaultServiceName
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Exam sessions
		if cfg.ExamHandler != nil {
			protected.POST("/exam/sessions", cfg.ExamHandler.StartSession)
			protected.GET("/exam/sessions/:id", cfg.ExamHandler.GetSession)
			protected.POST("/exam/sessions/:id/answers", cfg.ExamHandler.RecordAnswer)
			protected.POST("/exam/sessions/:id/complete", cfg.ExamHandler.CompleteSession)
			protected.GET("/results", cfg.ExamHandler.ListResults)
		}

		// Tests (negative marking)
		if cfg.TestHandler != nil {
			protected.GET("/tests/:process/questions", cfg.TestHandler.ListQuestions)
			protected.POST("/tests/:process/submit", cfg.TestHandler.Submit)
		}
	}

	admin := protected.Group("/admin")
	{
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireRole(types.RoleAdmin))
		}
		if cfg.RuleHandler != nil {
			admin.GET("/processes/:process/rules", cfg.RuleHandler.ListRules)
			admin.PUT("/processes/:process/rules", cfg.RuleHandler.UpsertRule)
			admin.DELETE("/processes/:process/rules/:category", cfg.RuleHandler.DeleteRule)
		}
	}

	return r
}
