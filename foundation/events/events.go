// Package events supports streaming the node's event log to interested
// clients, like the websocket endpoint.
package events

import (
	"fmt"
	"sync"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing messages instead of blocking the node.
const subscriberBuffer = 100

// Events maintains the set of subscriber channels that receive a copy of
// every node event.
type Events struct {
	mu          sync.RWMutex
	subscribers map[string]chan string
}

// New constructs an Events value for registering and receiving events.
func New() *Events {
	return &Events{
		subscribers: make(map[string]chan string),
	}
}

// Shutdown closes and removes every subscriber channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subscribers {
		delete(evt.subscribers, id)
		close(ch)
	}
}

// Acquire registers the specified id and returns the channel its events
// arrive on. Acquiring an existing id returns the same channel.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subscribers[id]; exists {
		return ch
	}

	evt.subscribers[id] = make(chan string, subscriberBuffer)
	return evt.subscribers[id]
}

// Release closes and removes the channel registered for the id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subscribers[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subscribers, id)
	close(ch)
	return nil
}

// Send delivers the message to every subscriber without blocking. Slow
// subscribers drop messages.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
}
