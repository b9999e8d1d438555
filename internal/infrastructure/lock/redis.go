package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// RedisKeyPrefix namespaces lock keys in Redis.
	RedisKeyPrefix = "lock:portfolio:"

	defaultTTL   = 30 * time.Second
	defaultRetry = 25 * time.Millisecond
	maxRetry     = 250 * time.Millisecond
)

// Deletes the key only while it still holds our token, so an expired lock
// re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a lock shared by every process using the same Redis.
// TTL caps how long a crashed holder can keep a key.
type RedisLocker struct {
	Client *redis.Client
	Wait   time.Duration
	TTL    time.Duration
	Retry  time.Duration
}

// NewRedisLocker returns a RedisLocker with the given wait budget and TTL.
func NewRedisLocker(rdb *redis.Client, wait, ttl time.Duration) *RedisLocker {
	return &RedisLocker{Client: rdb, Wait: wait, TTL: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := RedisKeyPrefix + key
	token := uuid.NewString()

	wait, ttl, retry := l.Wait, l.TTL, l.Retry
	if wait <= 0 {
		wait = DefaultWait
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if retry <= 0 {
		retry = defaultRetry
	}
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.Client.SetNX(ctx, redisKey, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return l.releaser(redisKey, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrTimeout
		}
		sleep := retry
		if remaining := time.Until(deadline); remaining < sleep {
			sleep = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
		if retry < maxRetry {
			retry *= 2
		}
	}
}

func (l *RedisLocker) releaser(redisKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// Released with a fresh context: the caller's may already be cancelled.
			if err := releaseScript.Run(context.Background(), l.Client, []string{redisKey}, token).Err(); err != nil {
				log.Warn().Err(err).Str("key", redisKey).Msg("lock: release failed, key will expire")
			}
		})
	}
}
