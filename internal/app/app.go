package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/yungbote/assessment-backend/internal/data/db"
	httpapi "github.com/yungbote/assessment-backend/internal/http"
	"github.com/yungbote/assessment-backend/internal/observability"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Server   *httpapi.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	theDB, err := openDB(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureExamIndexes(theDB); err != nil {
		log.Sync()
		return nil, fmt.Errorf("exam indexes: %w", err)
	}
	sqlDB, err := theDB.DB()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("sql pool: %w", err)
	}

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.Env,
	})

	clients, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, metrics)
	handlerset := wireHandlers(log, serviceset, sqlDB)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(cfg, log, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       server.Engine,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

func openDB(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		svc, err := db.NewSQLiteService(log, cfg.SQLitePath, false)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		log.Warn("Using sqlite; the single-active-session index is the only start guard", "path", cfg.SQLitePath)
		return svc.DB(), nil
	default:
		svc, err := db.NewPostgresService(log, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return svc.DB(), nil
	}
}

// Start launches background collectors. It is a no-op when metrics are off.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Metrics == nil {
		return
	}
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	if a.Clients.Redis != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
	}
	a.Metrics.StartSLOEvaluator(ctx, a.Log)
}

// Run serves the API until ctx is done, then drains in-flight requests.
func (a *App) Run(ctx context.Context, addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() { errCh <- a.Server.Run(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.Log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
