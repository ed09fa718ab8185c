package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"velvethour/internal/model"
)

// StatusCache holds short-lived per-user status snapshots. Agents resync
// aggressively after broadcasts and reconnects; the short TTL absorbs that
// thundering herd without ever serving state older than a couple of seconds.
type StatusCache interface {
	Get(ctx context.Context, eventID, userID string) (*model.StatusResponse, error)
	Set(ctx context.Context, eventID, userID string, status *model.StatusResponse) error
	InvalidateEvent(ctx context.Context, eventID string) error
}

type statusCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStatusCache(client *redis.Client) StatusCache {
	return &statusCache{
		client: client,
		ttl:    2 * time.Second,
	}
}

func (c *statusCache) key(eventID, userID string) string {
	return fmt.Sprintf("event:%s:status:%s", eventID, userID)
}

func (c *statusCache) setKey(eventID string) string {
	return fmt.Sprintf("event:%s:statuskeys", eventID)
}

func (c *statusCache) Get(ctx context.Context, eventID, userID string) (*model.StatusResponse, error) {
	data, err := c.client.Get(ctx, c.key(eventID, userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var status model.StatusResponse
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *statusCache) Set(ctx context.Context, eventID, userID string, status *model.StatusResponse) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	key := c.key(eventID, userID)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return err
	}
	// Track the key so a state transition can drop every cached snapshot for
	// the event at once.
	if err := c.client.SAdd(ctx, c.setKey(eventID), key).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, c.setKey(eventID), time.Minute).Err()
}

func (c *statusCache) InvalidateEvent(ctx context.Context, eventID string) error {
	keys, err := c.client.SMembers(ctx, c.setKey(eventID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	keys = append(keys, c.setKey(eventID))
	return c.client.Del(ctx, keys...).Err()
}
