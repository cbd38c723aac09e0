package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "storefront:token:"

// RedisStore keeps one token per scope (a browser session id for the
// gateway). A zero ttl keeps the token until Clear.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed token store for one scope.
func NewRedisStore(client *redis.Client, scope string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    redisKeyPrefix + scope,
		ttl:    ttl,
	}
}

func (r *RedisStore) Key() string {
	return r.key
}

func (r *RedisStore) Load(ctx context.Context) (string, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil // not found
	}
	if err != nil {
		return "", fmt.Errorf("session: failed to load token: %w", err)
	}
	return val, nil
}

func (r *RedisStore) Save(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("session: refusing to save empty token")
	}
	return r.client.Set(ctx, r.key, token, r.ttl).Err()
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
