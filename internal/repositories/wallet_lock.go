package repositories

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-crypto-wallet/internal/logger"
)

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the lock only if it is still held by the caller's token.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisWalletLock serializes submissions per wallet across service instances.
type RedisWalletLock struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisWalletLock(client *redis.Client, ttl, retry time.Duration) *RedisWalletLock {
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &RedisWalletLock{client: client, ttl: ttl, retry: retry}
}

// Lock blocks until the lock for key is acquired or ctx is done.
// The key is refreshed every ttl/3 until unlock is called; it expires after ttl if the holder process dies.
func (l *RedisWalletLock) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := "wallet_lock:" + strings.ToLower(key)
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			logger.Log.Errorw("failed to acquire wallet lock", "key", redisKey, "error", err)
			return nil, err
		}
		if ok {
			logger.Log.Debugw("wallet lock acquired", "key", redisKey)
			stop := make(chan struct{})
			done := make(chan struct{})
			go l.keepAlive(redisKey, token, stop, done)

			var once sync.Once
			return func() {
				once.Do(func() {
					close(stop)
					<-done
					l.release(redisKey, token)
				})
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// keepAlive extends key to ttl every ttl/3 until stop is closed or the lock is lost.
func (l *RedisWalletLock) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), interval)
		n, err := refreshScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
		cancel()
		if err != nil {
			logger.Log.Warnw("failed to refresh wallet lock", "key", key, "error", err)
			continue
		}
		if n == 0 {
			logger.Log.Errorw("wallet lock lost while held", "key", key)
			return
		}
	}
}

func (l *RedisWalletLock) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Log.Errorw("failed to release wallet lock", "key", key, "error", err)
		return
	}
	if n == 0 {
		logger.Log.Warnw("wallet lock expired before release", "key", key)
	}
}
