package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("DB_DRIVER", "sqlite")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.PassThreshold != 50 || cfg.NegativeMark != 0.25 {
		t.Fatalf("defaults: got=%+v", cfg)
	}
	if cfg.AccessTokenTTL != 12*time.Hour || cfg.StartLockTTL != 5*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("durations: access=%v lock=%v shutdown=%v", cfg.AccessTokenTTL, cfg.StartLockTTL, cfg.ShutdownTimeout)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("JWT_SECRET_KEY", "s3cret")
	t.Setenv("PASS_THRESHOLD", "60")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com ,")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Postgres.Host != "db.internal" || cfg.PassThreshold != 60 || cfg.RedisAddr != "redis:6379" {
		t.Fatalf("env overrides: got=%+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("cors origins: got=%v", cfg.CORSOrigins)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected config error")
	}
}
