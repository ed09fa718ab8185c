package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceCache is the redis implementation of presence.Store. Redis sets
// give the per-user deduplication for free: the same user reconnecting never
// inflates the count.
type PresenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceCache(client *redis.Client) *PresenceCache {
	return &PresenceCache{
		client: client,
		ttl:    24 * time.Hour, // counters die with the event day
	}
}

func (c *PresenceCache) presentKey(eventID string) string {
	return fmt.Sprintf("event:%s:present", eventID)
}

func (c *PresenceCache) attendingKey(eventID string) string {
	return fmt.Sprintf("event:%s:attending", eventID)
}

func (c *PresenceCache) AddPresent(ctx context.Context, eventID, userID string) error {
	key := c.presentKey(eventID)
	if err := c.client.SAdd(ctx, key, userID).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *PresenceCache) RemovePresent(ctx context.Context, eventID, userID string) error {
	return c.client.SRem(ctx, c.presentKey(eventID), userID).Err()
}

func (c *PresenceCache) PresentCount(ctx context.Context, eventID string) (int, error) {
	n, err := c.client.SCard(ctx, c.presentKey(eventID)).Result()
	return int(n), err
}

func (c *PresenceCache) ClearPresent(ctx context.Context, eventID string) error {
	return c.client.Del(ctx, c.presentKey(eventID)).Err()
}

func (c *PresenceCache) SetAttending(ctx context.Context, eventID, userID string, attending bool) error {
	key := c.attendingKey(eventID)
	if !attending {
		return c.client.SRem(ctx, key, userID).Err()
	}
	if err := c.client.SAdd(ctx, key, userID).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *PresenceCache) AttendingCount(ctx context.Context, eventID string) (int, error) {
	n, err := c.client.SCard(ctx, c.attendingKey(eventID)).Result()
	return int(n), err
}

func (c *PresenceCache) ClearAttending(ctx context.Context, eventID string) error {
	return c.client.Del(ctx, c.attendingKey(eventID)).Err()
}
