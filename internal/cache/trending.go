package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TrendingKey is the sorted set holding engagement scores per post
	TrendingKey = "trending:posts"

	// TrendingCap is the maximum number of posts kept in the trending set
	TrendingCap = 200

	// TrendingTTL bounds staleness when the worker stops bumping scores
	TrendingTTL = 7 * 24 * time.Hour
)

// Engagement score weights. A comment signals more intent than a like.
const (
	ScoreLike    = 1.0
	ScoreComment = 2.0
)

// PostScore represents a post with its engagement score.
type PostScore struct {
	PostID int64
	Score  float64
}

// TrendingCache defines the interface for the engagement-score cache.
// Using an interface enables testing with mocks and potential future backends.
type TrendingCache interface {
	// Bump adjusts a post's engagement score by delta (negative on unlike or
	// comment deletion). Uses pipeline: ZINCRBY + ZREMRANGEBYRANK + EXPIRE.
	Bump(ctx context.Context, postID int64, delta float64) error

	// Remove drops a post from the trending set (post deleted).
	Remove(ctx context.Context, postID int64) error

	// Top returns up to limit posts ordered by descending engagement score.
	Top(ctx context.Context, limit int) ([]PostScore, error)

	// Size returns the number of posts currently tracked.
	Size(ctx context.Context) (int64, error)
}

// RedisTrendingCache implements TrendingCache using a Redis Sorted Set.
type RedisTrendingCache struct {
	client *redis.Client
}

// NewTrendingCache creates a new TrendingCache backed by Redis.
func NewTrendingCache(client *redis.Client) TrendingCache {
	return &RedisTrendingCache{client: client}
}

// Bump adjusts a post's score using a pipeline.
// Pipeline: ZINCRBY + ZREMRANGEBYRANK (trim to cap) + EXPIRE (refresh TTL)
func (c *RedisTrendingCache) Bump(ctx context.Context, postID int64, delta float64) error {
	member := strconv.FormatInt(postID, 10)

	pipe := c.client.Pipeline()
	pipe.ZIncrBy(ctx, TrendingKey, delta, member)
	// Keep the highest TrendingCap scores, remove the rest
	pipe.ZRemRangeByRank(ctx, TrendingKey, 0, int64(-TrendingCap-1))
	pipe.Expire(ctx, TrendingKey, TrendingTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[TrendingCache] Bump FAILED: post=%d delta=%.1f err=%v", postID, delta, err)
		return fmt.Errorf("bump trending score: %w", err)
	}

	return nil
}

// Remove drops a post from the trending set.
func (c *RedisTrendingCache) Remove(ctx context.Context, postID int64) error {
	member := strconv.FormatInt(postID, 10)

	if err := c.client.ZRem(ctx, TrendingKey, member).Err(); err != nil {
		log.Printf("[TrendingCache] Remove FAILED: post=%d err=%v", postID, err)
		return fmt.Errorf("remove from trending: %w", err)
	}

	return nil
}

// Top returns the highest-scored posts, newest engagement first.
func (c *RedisTrendingCache) Top(ctx context.Context, limit int) ([]PostScore, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, TrendingKey, 0, int64(limit-1)).Result()
	if err != nil {
		log.Printf("[TrendingCache] Top FAILED: err=%v", err)
		return nil, fmt.Errorf("get trending posts: %w", err)
	}

	scores := make([]PostScore, 0, len(results))
	for _, z := range results {
		id, err := strconv.ParseInt(z.Member.(string), 10, 64)
		if err != nil {
			log.Printf("[TrendingCache] Top parse error: member=%v err=%v", z.Member, err)
			continue
		}
		scores = append(scores, PostScore{PostID: id, Score: z.Score})
	}

	return scores, nil
}

// Size returns the number of posts in the trending set.
func (c *RedisTrendingCache) Size(ctx context.Context) (int64, error) {
	size, err := c.client.ZCard(ctx, TrendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("get trending size: %w", err)
	}
	return size, nil
}
