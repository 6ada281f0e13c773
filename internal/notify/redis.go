package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Ensure Redis implements the interface.
var _ Bus = (*Redis)(nil)

// Redis is a Bus backed by Redis pub/sub, so editors in other processes see
// versions advanced by tailoring runs or restores made elsewhere.
type Redis struct {
	rdb *redis.Client
}

// NewRedis connects to Redis and verifies the connection
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Redis{rdb: rdb}, nil
}

// Publish sends the event on the resume's channel
func (r *Redis) Publish(ctx context.Context, event VersionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal version event: %w", err)
	}
	if err := r.rdb.Publish(ctx, channelName(event.ResumeID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish version event: %w", err)
	}
	return nil
}

// Subscribe relays the resume's channel into a typed event channel
func (r *Redis) Subscribe(ctx context.Context, resumeID uuid.UUID) (<-chan VersionEvent, func(), error) {
	pubsub := r.rdb.Subscribe(ctx, channelName(resumeID))
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", channelName(resumeID), err)
	}

	out := make(chan VersionEvent, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event VersionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[notify] ignoring malformed event on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case out <- event:
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			pubsub.Close() //nolint:errcheck
		})
	}
	return out, cancel, nil
}

// Close closes the Redis client
func (r *Redis) Close() error {
	return r.rdb.Close()
}
