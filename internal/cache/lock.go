package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

// ErrLockNotObtained 锁已被其他实例持有
var ErrLockNotObtained = errors.New("lock not obtained")

// Locker 互斥锁，Redis 可用时跨实例生效，否则退化为进程内锁
type Locker struct {
	client *redislock.Client
	local  sync.Map
}

// NewLocker 创建互斥锁
func NewLocker() *Locker {
	locker := &Locker{}
	if Enabled() {
		locker.client = redislock.New(redisClient)
	}
	return locker
}

// Obtain 尝试获取锁，返回释放函数
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := prefixed("lock:" + key)
	if l.client != nil {
		lock, err := l.client.Obtain(ctx, fullKey, ttl, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrLockNotObtained
		}
		if err != nil {
			return nil, err
		}
		return func() {
			_ = lock.Release(context.Background())
		}, nil
	}

	if _, loaded := l.local.LoadOrStore(fullKey, struct{}{}); loaded {
		return nil, ErrLockNotObtained
	}
	return func() {
		l.local.Delete(fullKey)
	}, nil
}
