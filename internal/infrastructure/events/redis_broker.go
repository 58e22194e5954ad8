package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marcos-nsantos/focusdeck-sync/internal/domain/event"
)

// RedisBroker fans events out to every API instance. Each instance runs one
// subscriber that hands received events to its local Hub.
type RedisBroker struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

func NewRedisBroker(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisBroker {
	return &RedisBroker{client: client, channel: channel, hub: hub, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, evt event.Event) error {
	message, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, message).Err(); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}

// Run blocks until ctx is done. ready is closed once the subscription is
// confirmed, so nothing published after that point is missed.
func (b *RedisBroker) Run(ctx context.Context, ready chan<- struct{}) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
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
			b.deliver(ctx, msg.Payload)
		}
	}
}

type wireEvent struct {
	event.Event
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (b *RedisBroker) deliver(ctx context.Context, payload string) {
	var w wireEvent
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		b.logger.Warn("dropping malformed event", zap.Error(err))
		return
	}
	evt := w.Event
	evt.Payload = w.Payload
	if err := b.hub.Publish(ctx, evt); err != nil {
		b.logger.Warn("delivering event", zap.Error(err), zap.String("type", string(evt.Type)))
	}
}
