// Package cache serves trip snapshots to polling UIs without touching
// the database on every poll. Entries are invalidated after each
// committed mutation and carry a short TTL so stale reads self-heal.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	models "github.com/oceandrift/fishcrew/internal"
)

const keyPrefix = "trip_snapshot:"

type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

// Get returns (nil, nil) on a miss.
func (c *SnapshotCache) Get(ctx context.Context, tripID uuid.UUID) (*models.TripSnapshot, error) {
	raw, err := c.client.Get(ctx, keyPrefix+tripID.String()).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap models.TripSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *SnapshotCache) Set(ctx context.Context, snapshot models.TripSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+snapshot.TripID.String(), raw, c.ttl).Err()
}

func (c *SnapshotCache) Invalidate(ctx context.Context, tripID uuid.UUID) error {
	return c.client.Del(ctx, keyPrefix+tripID.String()).Err()
}
