package memory

import (
	"context"
	"sync"

	"github.com/timothy-pham/Blockly-BE/internal/domain"
)

// EventBus is an in-process topic-per-room fan-out.
type EventBus struct {
	mu     sync.RWMutex
	topics map[int64]map[chan domain.Event]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{topics: make(map[int64]map[chan domain.Event]struct{})}
}

func (b *EventBus) Publish(_ context.Context, event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.topics[event.RoomID] {
		select {
		case ch <- event:
		default:
			// Drop the oldest buffered event so a slow subscriber never
			// blocks the room pipeline.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
	return nil
}

func (b *EventBus) Subscribe(_ context.Context, roomID int64) (<-chan domain.Event, func(), error) {
	ch := make(chan domain.Event, 16)

	b.mu.Lock()
	subs, ok := b.topics[roomID]
	if !ok {
		subs = make(map[chan domain.Event]struct{})
		b.topics[roomID] = subs
	}
	subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if subs, ok := b.topics[roomID]; ok {
			if _, present := subs[ch]; present {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(b.topics, roomID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel, nil
}
