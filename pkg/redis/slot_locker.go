package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/JangWoody/woody-service-back/pkg/errors"
)

const slotLockPrefix = "woody:lock:"

// 仅当值与持有者 token 一致时删除
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SlotLocker 基于 SET NX PX 的分布式槽位锁
type SlotLocker struct {
	client *Client
	ttl    time.Duration
	retry  time.Duration
}

// NewSlotLocker ttl 为锁自动过期时间，retry 为抢锁失败后的重试间隔
func (c *Client) NewSlotLocker(ttl, retry time.Duration) *SlotLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if retry <= 0 {
		retry = 20 * time.Millisecond
	}
	return &SlotLocker{client: c, ttl: ttl, retry: retry}
}

// Lock 抢锁直到成功或 ctx 结束
func (l *SlotLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := slotLockPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", apperrors.ErrLockTimeout, key)
			}
			return nil, fmt.Errorf("获取槽位锁失败: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", apperrors.ErrLockTimeout, key)
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, k, token) })
	}, nil
}

func (l *SlotLocker) release(key, k, token string) {
	// 释放与请求 ctx 解耦，避免请求取消后锁残留到 TTL
	rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := releaseScript.Run(rctx, l.client.rdb, []string{k}, token).Int()
	if err != nil && !errors.Is(err, goredis.Nil) {
		l.client.logger.Error("释放槽位锁失败", zap.String("key", key), zap.Error(err))
		return
	}
	if n == 0 {
		l.client.logger.Warn("槽位锁已过期", zap.String("key", key), zap.Error(apperrors.ErrLockLost))
	}
}
