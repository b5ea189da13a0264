package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when another holder owns the lock
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when releasing a lock that expired or changed hands
	ErrLockNotHeld = errors.New("lock not held")
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Locker provides single-holder locks so that only one replica runs a matching job at a time
type Locker struct {
	client    *Client
	keyPrefix string
}

func NewLocker(client *Client, keyPrefix string) *Locker {
	if keyPrefix == "" {
		keyPrefix = "banksia:lock:"
	}
	return &Locker{client: client, keyPrefix: keyPrefix}
}

// WithLock runs fn while holding key. ErrLockNotAcquired is returned without calling fn
// when the lock is taken.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lockKey := l.keyPrefix + key
	token := uuid.New().String()

	ok, err := l.client.rdb.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockNotAcquired
	}
	l.client.logger.WithContext(ctx).Debugf("Acquired lock: %s", lockKey)

	defer func() {
		released, err := releaseScript.Run(context.WithoutCancel(ctx), l.client.rdb, []string{lockKey}, token).Int64()
		switch {
		case err != nil:
			l.client.logger.WithContext(ctx).WithError(err).Warnf("Failed to release lock: %s", lockKey)
		case released == 0:
			l.client.logger.WithContext(ctx).WithError(ErrLockNotHeld).Warnf("Lock expired before release: %s", lockKey)
		}
	}()

	return fn(ctx)
}
