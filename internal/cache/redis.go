package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rishtahub/match-engine/internal/config"
)

// ScoredEntry is one member of a user's ranked match cache:
// a candidate id with the final score it was stored under.
type ScoredEntry struct {
	CandidateID uint64
	Score       float64
}

// RedisCache wraps the ranked match cache. Each user's daily working set
// lives in one sorted set keyed by their id, member = candidate id,
// score = final score, with a TTL on the whole set.
type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// KeyForMatches generates the Redis key for a user's ranked match set.
func (c *RedisCache) KeyForMatches(userID uint64) string {
	return fmt.Sprintf("matches:rank:%d", userID)
}

// ReplaceMatches overwrites the user's ranked set wholesale.
//
// DEL + ZADD + EXPIRE run in one MULTI/EXEC pipeline so readers never see
// a half-written set. Entries must be non-empty; skipping empty sets is the
// caller's concern.
func (c *RedisCache) ReplaceMatches(ctx context.Context, userID uint64, entries []ScoredEntry, ttl time.Duration) error {
	key := c.KeyForMatches(userID)

	members := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		members = append(members, redis.Z{
			Score:  e.Score,
			Member: strconv.FormatUint(e.CandidateID, 10),
		})
	}

	pipe := c.Client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZAdd(ctx, key, members...)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// TopMatches reads limit members starting at offset, highest score first.
// An absent or expired key yields an empty slice, not an error.
func (c *RedisCache) TopMatches(ctx context.Context, userID uint64, offset, limit int64) ([]ScoredEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	zs, err := c.Client.ZRevRangeWithScores(ctx, c.KeyForMatches(userID), offset, offset+limit-1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	entries := make([]ScoredEntry, 0, len(zs))
	for _, z := range zs {
		s, ok := z.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			continue // foreign member, not one of ours
		}
		entries = append(entries, ScoredEntry{CandidateID: id, Score: z.Score})
	}
	return entries, nil
}

// MatchCount returns the current cardinality of the user's ranked set.
// Zero for absent or expired keys.
func (c *RedisCache) MatchCount(ctx context.Context, userID uint64) (int64, error) {
	n, err := c.Client.ZCard(ctx, c.KeyForMatches(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// DeleteMatches drops the user's ranked set ahead of its TTL.
func (c *RedisCache) DeleteMatches(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.KeyForMatches(userID)).Err()
}
