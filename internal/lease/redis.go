package lease

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultLockKey = "econ:tick_lock"

// RedisLease keeps the lease as a single key whose TTL equals the staleness
// threshold. SET NX makes acquisition atomic, and key expiry realizes the
// forced takeover of a crashed holder without any explicit timestamp checks.
type RedisLease struct {
	client     *redis.Client
	log        *slog.Logger
	key        string
	staleAfter time.Duration
}

func NewRedisLease(client *redis.Client, staleAfter time.Duration, logger *slog.Logger) *RedisLease {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLease{
		client:     client,
		log:        logger,
		key:        defaultLockKey,
		staleAfter: staleAfter,
	}
}

func (l *RedisLease) TryAcquire(ctx context.Context, holder string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, holder, l.staleAfter).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (l *RedisLease) Release(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}
