package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// EventBus fans room events out through Redis pub/sub, one channel per
// room, so subscribers on other instances see the same stream.
type EventBus struct {
	client *redis.Client
}

func NewEventBus(client *redis.Client) *EventBus {
	return &EventBus{client: client}
}

func (b *EventBus) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, eventChannel(event.RoomID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (b *EventBus) Subscribe(ctx context.Context, roomID int64) (<-chan domain.Event, func(), error) {
	sub := b.client.Subscribe(ctx, eventChannel(roomID))
	// Force the subscription to be established before returning so callers
	// do not miss events published right after Subscribe.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe room %d: %w", roomID, err)
	}

	out := make(chan domain.Event, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			out <- event
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}
	return out, cancel, nil
}

func eventChannel(roomID int64) string {
	return "room:" + strconv.FormatInt(roomID, 10) + ":events"
}
