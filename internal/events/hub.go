// Package events fans complaint lifecycle events out to connected dashboard
// clients. Handlers publish after a successful engine call; the engine itself
// never emits events. Publishing goes through Redis Pub/Sub so every server
// instance sees every event.
package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis Pub/Sub channel carrying complaint events.
const Channel = "complaint:events"

// Event describes one lifecycle occurrence on a complaint.
type Event struct {
	Type        string `json:"type"`
	ComplaintID string `json:"complaint_id"`
	ActorID     string `json:"actor_id"`
	Detail      string `json:"detail,omitempty"`
	Timestamp   int64  `json:"timestamp"`
}

// Event types published by the API layer.
const (
	TypeRaised            = "complaint_raised"
	TypeUpvoted           = "complaint_upvoted"
	TypeVendorAssigned    = "vendor_assigned"
	TypeCounselorAssigned = "counselor_assigned"
	TypeWorkStarted       = "work_started"
	TypeResolved          = "complaint_resolved"
	TypeConfirmed         = "resolution_confirmed"
	TypeRated             = "resolution_rated"
	TypeFundsReleased     = "funds_released"
	TypeRejected          = "complaint_rejected"
)

// Subscriber is one connected feed client.
type Subscriber struct {
	Send chan Event
}

// Hub dispatches events to subscribers.
type Hub struct {
	Redis *redis.Client
	Ctx   context.Context

	RegisterCh   chan *Subscriber
	UnregisterCh chan *Subscriber

	// localCh carries events directly when no Redis is configured (demo mode
	// and tests).
	localCh     chan Event
	subscribers map[*Subscriber]bool
}

// NewHub creates an event hub. rdb may be nil for single-process setups.
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		Redis:        rdb,
		Ctx:          context.Background(),
		RegisterCh:   make(chan *Subscriber),
		UnregisterCh: make(chan *Subscriber),
		localCh:      make(chan Event, 64),
		subscribers:  make(map[*Subscriber]bool),
	}
}

// Publish emits an event to all feed clients, through Redis when available.
func (h *Hub) Publish(event Event) {
	if h.Redis == nil {
		h.localCh <- event
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: Failed to marshal event %s: %v", event.Type, err)
		return
	}
	if err := h.Redis.Publish(h.Ctx, Channel, payload).Err(); err != nil {
		log.Printf("ERROR: Failed to publish event %s: %v", event.Type, err)
	}
}

// Run is the hub's dispatcher loop. Start it in its own goroutine.
func (h *Hub) Run() {
	h.startPubSubListener()
	log.Println("Event hub started.")

	for {
		select {
		case sub := <-h.RegisterCh:
			h.subscribers[sub] = true

		case sub := <-h.UnregisterCh:
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.Send)
			}

		case event := <-h.localCh:
			for sub := range h.subscribers {
				select {
				case sub.Send <- event:
				default:
					// Slow client: drop it rather than blocking the hub.
					delete(h.subscribers, sub)
					close(sub.Send)
				}
			}
		}
	}
}

// startPubSubListener forwards Redis messages into the local dispatch loop.
func (h *Hub) startPubSubListener() {
	if h.Redis == nil {
		return
	}
	go func() {
		pubsub := h.Redis.Subscribe(h.Ctx, Channel)
		defer pubsub.Close()

		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("ERROR: Failed to unmarshal event payload: %v", err)
				continue
			}
			h.localCh <- event
		}
	}()
}
