package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BusChannel is the Redis pub/sub channel shared by all instances.
const BusChannel = "notifications:events"

type envelope struct {
	Origin string `json:"origin"`
	Target Target `json:"target"`
	Event  Event  `json:"event"`
}

// RedisBus relays hub publishes between instances. Each instance tags its
// messages with a random origin and ignores its own on the way back.
type RedisBus struct {
	client *redis.Client
	hub    *Hub
	origin string
	logger *zap.Logger
}

func NewRedisBus(client *redis.Client, hub *Hub, logger *zap.Logger) *RedisBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{
		client: client,
		hub:    hub,
		origin: uuid.NewString(),
		logger: logger,
	}
}

func (b *RedisBus) Origin() string { return b.origin }

func (b *RedisBus) Relay(ctx context.Context, target Target, event Event) error {
	data, err := json.Marshal(envelope{Origin: b.origin, Target: target, Event: event})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return b.client.Publish(ctx, BusChannel, data).Err()
}

// Run subscribes to the bus and delivers foreign events to the local hub
// until ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, BusChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", BusChannel, err)
	}
	b.logger.Info("Listening for realtime events", zap.String("channel", BusChannel), zap.String("origin", b.origin))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

// handle delivers one bus message locally. It reports whether the message was
// delivered (false for own-origin or malformed messages).
func (b *RedisBus) handle(payload string) bool {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		b.logger.Warn("Error parsing realtime event", zap.Error(err))
		return false
	}
	if env.Origin == b.origin {
		return false
	}
	b.hub.Deliver(env.Target, env.Event)
	return true
}
