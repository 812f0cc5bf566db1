package usecase

import (
	"sync"

	"github.com/devricklin/automessage/internal/biz/domain"
)

// EventBus fans change events out to subscribers.
// Publish never blocks; a full subscriber channel drops the event.
type EventBus struct {
	mu   sync.RWMutex
	subs map[int]*subscriber
	next int
}

type subscriber struct {
	ch    chan domain.Event
	types map[domain.EventType]struct{} // Empty means every type
}

func (s *subscriber) wants(t domain.EventType) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]*subscriber)}
}

// Subscribe registers a subscriber with the given channel buffer.
// When types are given only those events are delivered.
// The returned function unsubscribes and closes the channel.
func (b *EventBus) Subscribe(buffer int, types ...domain.EventType) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{ch: make(chan domain.Event, buffer)}
	if len(types) > 0 {
		sub.types = make(map[domain.EventType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Publish delivers evt to every interested subscriber that has room
func (b *EventBus) Publish(evt domain.Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if !sub.wants(evt.Type) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}
