package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RejectionRecorder counts rejected requests per organization.
type RejectionRecorder interface {
	RecordRateLimitRejection(organizationID string)
}

// RedisRateLimiter implements rate limiting using a Redis sliding window
type RedisRateLimiter struct {
	client     *redis.Client
	rejections RejectionRecorder
}

// NewRedisRateLimiter creates a new Redis-based rate limiter
func NewRedisRateLimiter(client *redis.Client, rejections RejectionRecorder) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:     client,
		rejections: rejections,
	}
}

// AllowRequest checks if a request is allowed under the organization's rate limit.
// Returns (allowed, remaining, error)
func (rl *RedisRateLimiter) AllowRequest(ctx context.Context, organizationID string, limit int, windowSeconds int) (bool, int, error) {
	now := time.Now()
	windowStart := now.Add(-time.Duration(windowSeconds) * time.Second)

	key := fmt.Sprintf("ratelimit:org:%s", organizationID)

	pipe := rl.client.Pipeline()

	// Remove old entries outside the sliding window
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))

	// Add current request timestamp
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})

	// Count requests in current window
	countCmd := pipe.ZCount(ctx, key, "-inf", "+inf")

	// Expire at twice the window size so idle keys get cleaned up
	pipe.Expire(ctx, key, time.Duration(windowSeconds*2)*time.Second)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count, err := countCmd.Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to get count: %w", err)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	allowed := count <= int64(limit)

	if !allowed && rl.rejections != nil {
		rl.rejections.RecordRateLimitRejection(organizationID)
	}

	return allowed, remaining, nil
}
