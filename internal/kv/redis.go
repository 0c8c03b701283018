package kv

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// casScript writes the new value only when the key currently holds the old
// one. Running as a single Lua script makes the read-compare-write atomic
// on the Redis side, so concurrent rotations for the same session cannot
// both succeed.
var casScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	if tonumber(ARGV[3]) > 0 then
		redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	else
		redis.call("SET", KEYS[1], ARGV[2])
	end
	return 1
end
return 0
`)

type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection with a ping.
// The prefix is prepended to every key, which lets multiple deployments
// share one Redis instance.
func NewRedisStore(addr, password string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "[NewRedisStore] ping")
	}

	return &RedisStore{client: client, prefix: prefix}, nil
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "[RedisStore.Get]")
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return errors.Wrap(r.client.Set(ctx, r.key(key), value, ttl).Err(), "[RedisStore.Set]")
}

func (r *RedisStore) Del(ctx context.Context, key string) error {
	return errors.Wrap(r.client.Del(ctx, r.key(key)).Err(), "[RedisStore.Del]")
}

func (r *RedisStore) CompareAndSwap(ctx context.Context, key, old, new string, ttl time.Duration) (bool, error) {
	res, err := casScript.Run(ctx, r.client, []string{r.key(key)}, old, new, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, errors.Wrap(err, "[RedisStore.CompareAndSwap]")
	}
	return res == 1, nil
}

func (r *RedisStore) SAdd(ctx context.Context, key, member string) error {
	return errors.Wrap(r.client.SAdd(ctx, r.key(key), member).Err(), "[RedisStore.SAdd]")
}

func (r *RedisStore) SRem(ctx context.Context, key, member string) error {
	return errors.Wrap(r.client.SRem(ctx, r.key(key), member).Err(), "[RedisStore.SRem]")
}

func (r *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.key(key)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[RedisStore.SMembers]")
	}
	return members, nil
}
