package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis implements Manager with SET NX. The TTL keeps crashed holders from
// orphaning a territory forever.
type Redis struct {
	client  *redis.Client
	ttl     time.Duration
	retries int
	backoff time.Duration
}

// NewRedis builds a redis-backed lock manager.
func NewRedis(client *redis.Client, ttl time.Duration, retries int, backoff time.Duration) *Redis {
	return &Redis{
		client:  client,
		ttl:     ttl,
		retries: retries,
		backoff: backoff,
	}
}

// Acquire attempts SET NX with bounded retries.
func (l *Redis) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	for attempt := 0; attempt <= l.retries; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return "", false, err
		}
		if ok {
			return token, true, nil
		}
		if attempt < l.retries {
			select {
			case <-ctx.Done():
				return "", false, ctx.Err()
			case <-time.After(l.backoff):
			}
		}
	}
	return "", false, nil
}

// Release deletes the key only while the token still owns it.
func (l *Redis) Release(ctx context.Context, key, token string) error {
	if key == "" || token == "" {
		return errors.New("key and token are required")
	}
	return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)
