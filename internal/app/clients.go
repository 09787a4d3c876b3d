package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

type Clients struct {
	Redis goredis.UniversalClient
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set; session start lock is process-local")
		return Clients{}, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("redis ping: %w", err)
	}
	return Clients{Redis: rdb}, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
