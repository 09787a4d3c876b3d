package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/assessment-backend/internal/observability"
	"github.com/yungbote/assessment-backend/internal/platform/logger"
)

const (
	startLockAcquired  = "acquired"
	startLockContended = "contended"
	startLockError     = "error"
)

// StartLocker serialises StartSession for one (user, process) across instances.
// Acquire never fails the caller on contention: storage constraints still guard
// the single-active-session invariant, the lock only keeps retries rare.
type StartLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type noopStartLocker struct{}

func NewNoopStartLocker() StartLocker { return noopStartLocker{} }

func (noopStartLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

var releaseStartLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisStartLocker struct {
	log    *logger.Logger
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
}

func NewRedisStartLocker(log *logger.Logger, rdb redis.UniversalClient, ttl time.Duration) *RedisStartLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisStartLocker{
		log:    log.With("service", "RedisStartLocker"),
		rdb:    rdb,
		prefix: "asm:start_lock:",
		ttl:    ttl,
		wait:   ttl,
		poll:   25 * time.Millisecond,
	}
}

// Acquire polls SET NX until the lock is taken or the wait deadline passes.
// On contention or redis errors it returns a no-op release and a nil error.
func (l *RedisStartLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.rdb == nil {
		return func() {}, nil
	}
	fullKey := l.prefix + strings.TrimSpace(key)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return func() {}, err
			}
			l.log.Warn("Start lock unavailable, continuing without it", "key", fullKey, "error", err)
			observability.Current().IncStartLock(startLockError)
			return func() {}, nil
		}
		if ok {
			observability.Current().IncStartLock(startLockAcquired)
			return func() { l.release(fullKey, token) }, nil
		}
		if time.Now().After(deadline) {
			l.log.Warn("Start lock contended past wait deadline", "key", fullKey)
			observability.Current().IncStartLock(startLockContended)
			return func() {}, nil
		}
		timer := time.NewTimer(l.poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return func() {}, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisStartLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseStartLock.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.log.Warn("Start lock release failed", "key", key, "error", err)
	}
}

func startLockKey(userID uuid.UUID, process string) string {
	return userID.String() + "|" + strings.ToLower(strings.TrimSpace(process))
}
