// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amityhq/amity/internal/models"
)

// MessageFeed pushes every persisted chat message onto a Redis list so
// downstream consumers (archival, analytics) can drain them independently
// of the realtime broadcast path. Publishing is a quick network send; it is
// never on the critical path of message delivery.
type MessageFeed struct {
	client *redis.Client
	queue  string
}

// NewMessageFeed connects a Redis client and verifies it with a short ping.
func NewMessageFeed(addr string, db int, queue string) (*MessageFeed, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &MessageFeed{client: client, queue: queue}, nil
}

// PublishMessage serializes the message to JSON and RPUSHes it to the queue.
func (f *MessageFeed) PublishMessage(ctx context.Context, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := f.client.RPush(ctx, f.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", f.queue, err)
	}
	return nil
}

// PopMessage blocks up to timeout waiting for the next feed entry. A nil
// message with a nil error means the timeout elapsed with the queue empty.
func (f *MessageFeed) PopMessage(ctx context.Context, timeout time.Duration) (*models.Message, error) {
	res, err := f.client.BLPop(ctx, timeout, f.queue).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to BLPop from Redis list '%s': %w", f.queue, err)
	}
	if len(res) < 2 {
		return nil, nil
	}

	// res[0] is the queue name and res[1] the payload.
	var msg models.Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("invalid feed entry: %w", err)
	}
	return &msg, nil
}

// Close releases the underlying client.
func (f *MessageFeed) Close() error {
	return f.client.Close()
}
