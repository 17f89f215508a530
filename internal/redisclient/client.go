package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sales-dashboard/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	snapshotKey   = "dashboard:snapshot"
	generationKey = "dashboard:snapshot:generation"
)

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client holding snapshots for ttl
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromRedis(rdb, ttl), nil
}

// NewFromRedis wraps an existing go-redis client
func NewFromRedis(rdb *redis.Client, ttl time.Duration) *Client {
	return &Client{rdb: rdb, ttl: ttl}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetSnapshot returns the cached snapshot. ok is false on a cache miss.
func (c *Client) GetSnapshot(ctx context.Context) (*models.Snapshot, bool, error) {
	data, err := c.rdb.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot failed: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("decode snapshot failed: %w", err)
	}
	return &snap, true, nil
}

// Generation returns the number of invalidations seen so far
func (c *Client) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get snapshot generation failed: %w", err)
	}
	return gen, nil
}

// SetSnapshot caches a snapshot fetched at generation gen. The write is
// dropped when an invalidation has happened since, including one racing
// with this call. A zero ttl disables caching.
func (c *Client) SetSnapshot(ctx context.Context, snap *models.Snapshot, gen int64) (bool, error) {
	if c.ttl <= 0 {
		return false, nil
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("encode snapshot failed: %w", err)
	}

	stored := false
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, snapshotKey, data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("set snapshot failed: %w", err)
	}
	return stored, nil
}

// InvalidateSnapshot removes the cached snapshot and bumps the generation
func (c *Client) InvalidateSnapshot(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, snapshotKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate snapshot failed: %w", err)
	}
	return nil
}
