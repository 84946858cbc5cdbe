package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/you/marketauth/domain"
)

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements domain.Locker with SET NX and a compare-and-delete release
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker creates a new redis-backed locker
func NewRedisLocker(client *redis.Client) domain.Locker {
	return &RedisLocker{client: client, prefix: "lock:"}
}

// Lock implements domain.Locker
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Unlock implements domain.Locker
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, l.client, []string{l.prefix + key}, token).Err()
}
