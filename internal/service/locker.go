package service

import (
	"context"
	"sync"
	"time"

	"storefront/internal/redisclient"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Locker grants exclusive use of a key. ok is false when another holder has it.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

// LocalLocker serializes keys within one process
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}

// RedisLocker shares locks between replicas through redis
type RedisLocker struct {
	redis  *redisclient.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisLocker(redis *redisclient.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{redis: redis, ttl: ttl, logger: util.GetLogger()}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	lock, err := l.redis.AcquireLock(ctx, key, l.ttl)
	if err != nil {
		return nil, false, err
	}
	if lock == nil {
		return nil, false, nil
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.redis.ReleaseLock(ctx, lock); err != nil {
			l.logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, true, nil
}
