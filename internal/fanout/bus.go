// Package fanout delivers pipeline progress events to whichever front-end
// instance holds a subscriber's connection, over Redis pub/sub. It replaces
// the teacher's internal/websocket.Hub — a single shared "cluster_events"
// channel with envelope-level target_user_id dispatch and in-process
// multicast — with one Redis channel per user, since this system's delivery
// target is a per-user SSE stream rather than a locally-multiplexed
// websocket hub.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"thoughtstream/internal/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTooManyConnections is returned by Subscribe once the per-instance
// connection cap (Config.MaxConnectionsPerInstance) is reached.
var ErrTooManyConnections = errors.New("fanout: too many concurrent subscriptions")

// Cancel releases a subscription's underlying Redis connection.
type Cancel func()

// Bus is the Redis-backed implementation of internal/pipeline.Publisher. The
// orchestrator publishes all progress and failure events through it
// (including the ThoughtFailed of Orchestrator.Abandon, which the broker
// consumer calls), and internal/sweeper uses it to announce a stuck-thought
// failure.
type Bus struct {
	cfg    Config
	client *redis.Client
	active int64
}

func NewBus(cfg Config) (*Bus, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("fanout: invalid redis url: %w", err)
	}
	return &Bus{cfg: cfg, client: redis.NewClient(opts)}, nil
}

func (b *Bus) channelName(userID uuid.UUID) string {
	return b.cfg.ChannelPrefix + ":" + userID.String()
}

// Publish delivers event to userID's channel. Delivery is best-effort: if no
// subscriber is currently connected the publish still succeeds and the
// message is simply not read by anyone. There is no replay.
func (b *Bus) Publish(ctx context.Context, userID uuid.UUID, event events.Event) error {
	payload, err := events.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channelName(userID), payload).Err()
}

// Subscribe opens a per-user Redis pub/sub subscription and returns a
// channel of decoded events. The returned Cancel closes the underlying
// connection; callers must always call it to avoid leaking the connection
// slot counted against Config.MaxConnectionsPerInstance.
func (b *Bus) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan events.Event, Cancel, error) {
	if atomic.AddInt64(&b.active, 1) > int64(b.cfg.MaxConnectionsPerInstance) {
		atomic.AddInt64(&b.active, -1)
		return nil, nil, ErrTooManyConnections
	}

	pubsub := b.client.Subscribe(ctx, b.channelName(userID))
	redisCh := pubsub.Channel()
	out := make(chan events.Event)

	go func() {
		defer close(out)
		for msg := range redisCh {
			event, err := events.Decode([]byte(msg.Payload))
			if err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		pubsub.Close()
		atomic.AddInt64(&b.active, -1)
	}
	return out, cancel, nil
}

func (b *Bus) Close() error {
	return b.client.Close()
}
