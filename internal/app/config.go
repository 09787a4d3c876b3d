package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/assessment-backend/internal/data/db"
	"github.com/yungbote/assessment-backend/internal/domain/assessment"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET_KEY is required outside local environments")

type Config struct {
	Env     string
	Port    string
	LogMode string

	DBDriver   string
	Postgres   db.PostgresConfig
	SQLitePath string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	RedisAddr     string
	RedisPassword string
	StartLockTTL  time.Duration

	PassThreshold float64
	NegativeMark  float64

	CORSOrigins     []string
	MetricsAddr     string
	OtelServiceName string
	ShutdownTimeout time.Duration
}

func (c Config) IsLocal() bool {
	return c.Env == "" || c.Env == "local" || c.Env == "development"
}

// LoadConfig reads an optional config/config.yaml and the environment.
// Environment keys are the upper-cased key with "." replaced by "_".
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	v.SetDefault("app_env", "local")
	v.SetDefault("port", "8080")
	v.SetDefault("log_mode", "development")
	v.SetDefault("db_driver", "postgres")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.name", "assessment")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("sqlite.path", "assessment.db")
	v.SetDefault("jwt_secret_key", "")
	v.SetDefault("access_token_ttl", "12h")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("start_lock_ttl", "5s")
	v.SetDefault("pass_threshold", assessment.DefaultPassThreshold)
	v.SetDefault("test_negative_mark", assessment.DefaultNegativeMark)
	v.SetDefault("cors_origins", "")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("otel_service_name", "assessment")
	v.SetDefault("shutdown_timeout", "10s")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return Config{}, fmt.Errorf("error loading config file: %w", err)
		}
	}

	cfg := Config{
		Env:      strings.ToLower(strings.TrimSpace(v.GetString("app_env"))),
		Port:     v.GetString("port"),
		LogMode:  v.GetString("log_mode"),
		DBDriver: strings.ToLower(strings.TrimSpace(v.GetString("db_driver"))),
		Postgres: db.PostgresConfig{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetString("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Name:     v.GetString("postgres.name"),
			SSLMode:  v.GetString("postgres.sslmode"),
		},
		SQLitePath:      v.GetString("sqlite.path"),
		JWTSecretKey:    v.GetString("jwt_secret_key"),
		AccessTokenTTL:  v.GetDuration("access_token_ttl"),
		RedisAddr:       strings.TrimSpace(v.GetString("redis.addr")),
		RedisPassword:   v.GetString("redis.password"),
		StartLockTTL:    v.GetDuration("start_lock_ttl"),
		PassThreshold:   v.GetFloat64("pass_threshold"),
		NegativeMark:    v.GetFloat64("test_negative_mark"),
		CORSOrigins:     splitList(v.GetString("cors_origins")),
		MetricsAddr:     v.GetString("metrics_addr"),
		OtelServiceName: v.GetString("otel_service_name"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.JWTSecretKey == "" && !c.IsLocal() {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.PassThreshold <= 0 || c.PassThreshold > 100 {
		errs = append(errs, fmt.Errorf("PASS_THRESHOLD must be in (0, 100], got %v", c.PassThreshold))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
	}
	if c.NegativeMark < 0 {
		errs = append(errs, fmt.Errorf("TEST_NEGATIVE_MARK must be non-negative, got %v", c.NegativeMark))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
