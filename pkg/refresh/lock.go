package refresh

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

// Locker keeps replicas from running the same task at the same time.
// Acquire reports false when another holder owns the lock.
type Locker interface {
	Acquire(ctx context.Context, task string) (release func(), ok bool, err error)
}

// RedisLocker implements Locker with go-zero's Redis lock.
type RedisLocker struct {
	rds    *redis.Redis
	key    func(task string) string
	expire int
}

// NewRedisLocker builds a locker whose locks expire after expireSeconds,
// so a crashed holder cannot block a task forever.
func NewRedisLocker(rds *redis.Redis, key func(task string) string, expireSeconds int) *RedisLocker {
	return &RedisLocker{rds: rds, key: key, expire: expireSeconds}
}

// Acquire implements Locker.
func (l *RedisLocker) Acquire(ctx context.Context, task string) (func(), bool, error) {
	lock := redis.NewRedisLock(l.rds, l.key(task))
	lock.SetExpire(l.expire)
	ok, err := lock.AcquireCtx(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		if _, err := lock.ReleaseCtx(context.Background()); err != nil {
			logx.Errorf("refresh: release lock for %s: %v", task, err)
		}
	}
	return release, true, nil
}
