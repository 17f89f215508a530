package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"sales-dashboard/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, ttl time.Duration) *Client {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Integration test - requires redis")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	c := NewFromRedis(rdb, ttl)
	t.Cleanup(func() {
		_ = c.InvalidateSnapshot(context.Background())
		_ = c.Close()
	})
	return c
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := testClient(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.InvalidateSnapshot(ctx))
	_, ok, err := c.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	snap := &models.Snapshot{
		Customers: []models.Customer{{CustomerID: 1, Name: "Ani", Birthdate: "2000-01-01"}},
		Orders: []models.OrderRow{{
			OrderID:     1,
			TotalAmount: decimal.RequireFromString("150000.50"),
			Customer:    models.Some(models.CustomerRef{Name: "Ani"}),
		}},
	}
	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	stored, err := c.SetSnapshot(ctx, snap, gen)
	require.NoError(t, err)
	assert.True(t, stored)

	got, ok, err := c.GetSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.Customers, got.Customers)
	require.Len(t, got.Orders, 1)
	assert.Equal(t, "Ani", got.Orders[0].Customer.Val.Name)
	assert.True(t, snap.Orders[0].TotalAmount.Equal(got.Orders[0].TotalAmount))
}

func TestSetSnapshotAfterInvalidationIsDropped(t *testing.T) {
	c := testClient(t, time.Minute)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)

	// a data change lands while the snapshot is being fetched
	require.NoError(t, c.InvalidateSnapshot(ctx))

	stored, err := c.SetSnapshot(ctx, &models.Snapshot{}, gen)
	require.NoError(t, err)
	assert.False(t, stored)

	_, ok, err := c.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	next, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, next)
}

func TestSetSnapshotDisabled(t *testing.T) {
	c := testClient(t, 0)
	ctx := context.Background()

	stored, err := c.SetSnapshot(ctx, &models.Snapshot{}, 0)
	require.NoError(t, err)
	assert.False(t, stored)
	_, ok, err := c.GetSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
