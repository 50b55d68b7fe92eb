package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RunLocker grants one report run per batch at a time. Acquire returns the
// token that must be handed back to Release.
type RunLocker interface {
	Acquire(ctx context.Context, batchID uint, ttl time.Duration) (token string, acquired bool, err error)
	Release(ctx context.Context, batchID uint, token string) error
}

// RunLockKey is the redis key guarding report runs of a batch.
func RunLockKey(batchID uint) string {
	return fmt.Sprintf("report:lock:batch:%d", batchID)
}

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisRunLocker struct {
	client redis.UniversalClient
	logger *slog.Logger
}

func NewRedisRunLocker(client redis.UniversalClient, logger *slog.Logger) RunLocker {
	return &redisRunLocker{
		client: client,
		logger: logger.With("component", "run_locker"),
	}
}

func (l *redisRunLocker) Acquire(ctx context.Context, batchID uint, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, RunLockKey(batchID), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire run lock for batch %d: %w", batchID, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *redisRunLocker) Release(ctx context.Context, batchID uint, token string) error {
	released, err := releaseScript.Run(ctx, l.client, []string{RunLockKey(batchID)}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release run lock for batch %d: %w", batchID, err)
	}
	if released == 0 {
		l.logger.Warn("Run lock expired before release", "batch_id", batchID)
	}
	return nil
}
