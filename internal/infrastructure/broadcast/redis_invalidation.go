// Package broadcast fans profile cache invalidations out to every replica over Redis pub/sub.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used for invalidation events.
const DefaultChannel = "dojo-hub:profile-invalidations"

// invalidationEvent is the wire format of a broadcast invalidation.
type invalidationEvent struct {
	UserID string `json:"userId"`
	Origin string `json:"origin"`
}

// RedisInvalidator publishes and receives profile invalidations.
// Implements domain.InvalidationBroadcaster.
type RedisInvalidator struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *slog.Logger
}

// NewRedisInvalidatorWithURL creates an invalidator from a redis:// URL.
func NewRedisInvalidatorWithURL(url, channel string, logger *slog.Logger) (*RedisInvalidator, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisInvalidator(redis.NewClient(opts), channel, logger), nil
}

// NewRedisInvalidator creates an invalidator over an existing client. Each
// invalidator gets its own origin ID, so processes sharing a host still hear
// each other.
func NewRedisInvalidator(client *redis.Client, channel string, logger *slog.Logger) *RedisInvalidator {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisInvalidator{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger.With("component", "redis_invalidator"),
	}
}

// Publish announces that userID's profile changed.
func (r *RedisInvalidator) Publish(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user id is empty")
	}
	payload, err := json.Marshal(invalidationEvent{UserID: userID, Origin: r.origin})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

// Run subscribes to the channel and calls onInvalidate for every event published
// by another replica. It blocks until ctx is done.
func (r *RedisInvalidator) Run(ctx context.Context, onInvalidate func(userID string)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before consuming.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev invalidationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil || ev.UserID == "" {
				r.logger.WarnContext(ctx, "discarding malformed invalidation event", "error", err)
				continue
			}
			if ev.Origin == r.origin {
				continue
			}
			onInvalidate(ev.UserID)
		}
	}
}

// Ping checks the Redis connection.
func (r *RedisInvalidator) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisInvalidator) Close() error {
	return r.client.Close()
}
