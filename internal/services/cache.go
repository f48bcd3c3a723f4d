package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsCache holds per-owner dashboard stats between mutations.
type StatsCache interface {
	Get(ctx context.Context, ownerID string) (*Stats, bool, error)
	Set(ctx context.Context, ownerID string, stats Stats) error
	Invalidate(ctx context.Context, ownerID string) error
}

type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context, string) (*Stats, bool, error) { return nil, false, nil }
func (NoopStatsCache) Set(context.Context, string, Stats) error          { return nil }
func (NoopStatsCache) Invalidate(context.Context, string) error          { return nil }

type RedisStatsCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func statsKey(ownerID string) string {
	return "keep:stats:" + ownerID
}

func (c RedisStatsCache) Get(ctx context.Context, ownerID string) (*Stats, bool, error) {
	raw, err := c.Client.Get(ctx, statsKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

func (c RedisStatsCache) Set(ctx context.Context, ownerID string, stats Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, statsKey(ownerID), raw, c.TTL).Err()
}

func (c RedisStatsCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.Client.Del(ctx, statsKey(ownerID)).Err()
}
