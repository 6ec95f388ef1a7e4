package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pickup-route-service/internal/platform/obs"

	redis "github.com/redis/go-redis/v9"
)

const DefaultRedisTTL = 7 * 24 * time.Hour

// RedisDurationCache stores one hash per origin, field = destination key,
// value = seconds. Each write refreshes the hash TTL.
type RedisDurationCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisDurationCache connects using a redis:// URL.
func NewRedisDurationCache(url string, ttl time.Duration) (*RedisDurationCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis duration cache: parse url: %w", err)
	}
	return NewRedisDurationCacheFromClient(redis.NewClient(opt), ttl), nil
}

func NewRedisDurationCacheFromClient(rdb *redis.Client, ttl time.Duration) *RedisDurationCache {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisDurationCache{rdb: rdb, ttl: ttl, prefix: "duration:"}
}

func (r *RedisDurationCache) hashKey(origin string) string { return r.prefix + origin }

func (r *RedisDurationCache) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisDurationCache) Close() error {
	return r.rdb.Close()
}

func (r *RedisDurationCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]int, err error) {
	defer obs.Time(ctx, "duration.cache.redis.GetMany")(&err)

	if origin == "" {
		return nil, errors.New("get duration cache: origin must not be empty")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]int{}, nil
	}

	vals, err := r.rdb.HMGet(ctx, r.hashKey(origin), uniq...).Result()
	if err != nil {
		return nil, fmt.Errorf("get duration cache: hmget: %w", err)
	}

	out := make(map[string]int, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		secs, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("get duration cache: field %q: %w", uniq[i], err)
		}
		out[uniq[i]] = secs
	}
	return out, nil
}

func (r *RedisDurationCache) PutMany(ctx context.Context, origin string, results map[string]int) error {
	if origin == "" {
		return errors.New("insert duration cache: origin must not be empty")
	}
	if len(results) == 0 {
		return nil
	}

	fields := make(map[string]any, len(results))
	for dest, secs := range results {
		if dest == "" {
			return errors.New("insert duration cache: empty destination key")
		}
		fields[dest] = secs
	}

	key := r.hashKey(origin)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert duration cache: %w", err)
	}
	return nil
}
