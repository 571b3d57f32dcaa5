// Package replication implements the master-side broadcast fan-out and
// the replica-side handshake and command ingest loop described in
// SPEC_FULL.md §4.5.
package replication

import "sync"

const subscriberBacklog = 16

// Subscriber is one replica's outbound stream. The master-side PSYNC
// handler subscribes a connection, then loops writing everything it
// receives on Frames to that replica's socket.
type Subscriber struct {
	Frames chan []byte
	hub    *Hub
}

// Hub is a single-producer multi-consumer broadcast channel of raw
// command bytes. It never blocks the producer: a subscriber whose
// buffer is full is dropped rather than slowing down the master.
type Hub struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// NewHub creates an empty broadcast hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a new replica stream and returns it. The caller
// must eventually call Unsubscribe, typically via defer, when the
// replica disconnects.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		Frames: make(chan []byte, subscriberBacklog),
		hub:    h,
	}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a replica stream from the broadcast set.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Publish fans raw command bytes out to every subscriber registered at
// the time of the call. A subscriber whose channel is full is lagging
// and is dropped immediately rather than blocking this call.
func (h *Hub) Publish(raw []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.Frames <- raw:
		default:
			delete(h.subs, sub)
			close(sub.Frames)
		}
	}
}

// SubscriberCount returns the number of replicas currently attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
