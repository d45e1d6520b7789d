package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisPublisher is the slice of the redis client the sink needs.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink republishes traffic events on a Redis pub/sub channel so other
// processes can follow the feed.
type RedisSink struct {
	client  redisPublisher
	channel string
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// NewRedisSink publishes to channel through client.
func NewRedisSink(client redisPublisher, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

// Run subscribes to hub and forwards events until ctx is done.
func (s *RedisSink) Run(ctx context.Context, hub *Hub) {
	forward(ctx, hub.Subscribe("redis"), func(ctx context.Context, _ Event, data []byte) error {
		return s.client.Publish(ctx, s.channel, data).Err()
	})
}
