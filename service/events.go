package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	EventApplicationCreated       = "APPLICATION_CREATED"
	EventApplicationUpdated       = "APPLICATION_UPDATED"
	EventApplicationStatusChanged = "APPLICATION_STATUS_CHANGED"
	EventApplicationDeleted       = "APPLICATION_DELETED"
)

// ApplicationEvent is broadcast after every successful mutation.
type ApplicationEvent struct {
	Type          string    `json:"type"`
	UserID        int64     `json:"userId"`
	ApplicationID int64     `json:"applicationId"`
	Status        string    `json:"status,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher delivers application events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event ApplicationEvent)
}

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// RedisPublisher publishes events as JSON on a pub/sub channel.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, event ApplicationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("marshal application event failed", "type", event.Type, "err", err)
		return
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		slog.Warn("publish application event failed", "type", event.Type, "channel", p.channel, "err", err)
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ApplicationEvent) {}
