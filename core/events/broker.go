package events

import (
	"sync"

	"github.com/google/uuid"
)

const defaultSubscriberBuffer = 64

// Broker fans committed events out to subscribers. Slow subscribers miss
// events instead of blocking the publisher.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer int
}

// NewBroker constructs a broker whose subscriber channels hold buffer events.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Broker{subs: make(map[string]chan Event), buffer: buffer}
}

// Subscribe registers a new subscriber. The returned cancel function closes the
// channel and is safe to call more than once.
func (b *Broker) Subscribe() (string, <-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return id, ch, cancel
}

// Emit implements the Emitter interface.
func (b *Broker) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
