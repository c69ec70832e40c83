package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edibez/cryptoagent/pkg/types"
)

const (
	keyTotal  = "usage:asks:total"
	keyOK     = "usage:asks:ok"
	keyFailed = "usage:asks:failed"
	keyDaily  = "usage:asks:day:%s"

	dailyTTL = 48 * time.Hour
)

// Counter tracks ask volume in Redis
type Counter struct {
	client *redis.Client
}

// NewCounter connects to Redis and verifies the connection
func NewCounter(redisAddr string) (*Counter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Counter{client: client}, nil
}

// Record counts one answered ask
func (c *Counter) Record(ctx context.Context, ok bool) error {
	outcome := keyFailed
	if ok {
		outcome = keyOK
	}
	day := fmt.Sprintf(keyDaily, time.Now().UTC().Format("2006-01-02"))

	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, keyTotal)
	pipe.Incr(ctx, outcome)
	pipe.Incr(ctx, day)
	pipe.Expire(ctx, day, dailyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Stats returns the running totals
func (c *Counter) Stats(ctx context.Context) (*types.UsageStats, error) {
	vals, err := c.client.MGet(ctx, keyTotal, keyOK, keyFailed).Result()
	if err != nil {
		return nil, err
	}

	counts := make([]int64, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad counter value %q: %w", s, err)
		}
		counts[i] = n
	}

	return &types.UsageStats{Total: counts[0], OK: counts[1], Failed: counts[2]}, nil
}

// Today returns the number of asks recorded on the current UTC day
func (c *Counter) Today(ctx context.Context) (int64, error) {
	day := fmt.Sprintf(keyDaily, time.Now().UTC().Format("2006-01-02"))
	count, err := c.client.Get(ctx, day).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// Close closes the Redis connection
func (c *Counter) Close() error {
	return c.client.Close()
}
