package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"

	"github.com/Vovarama1992/lingobuddy/internal/ports"
)

const keyPrefix = "lease:"

// снимаем ключ, только если он всё ещё наш
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease — SET NX PX + compare-and-delete, работает между инстансами
type RedisLease struct {
	client *redis.Client
}

func NewRedisLease(client *redis.Client) *RedisLease {
	return &RedisLease{client: client}
}

var _ ports.TurnLease = (*RedisLease)(nil)

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := xid.New().String()

	ok, err := l.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis lease: %w", err)
	}
	if !ok {
		return "", ports.ErrLeaseHeld
	}
	return token, nil
}

func (l *RedisLease) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("redis lease release: %w", err)
	}
	return nil
}
