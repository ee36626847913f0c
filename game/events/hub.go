package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/picture-puzzle/game/engine"
)

// DefaultBufferSize is the per-subscriber queue length
const DefaultBufferSize = 64

// EventType names what happened to a session
type EventType string

const (
	EventStateUpdate EventType = "state_update"
	EventVictory     EventType = "victory"
	EventDefeat      EventType = "defeat"
	EventReset       EventType = "reset"
	EventError       EventType = "error"
	EventDeleted     EventType = "deleted"
)

// Event is a state change of one session
type Event struct {
	SessionID string          `json:"session_id"`
	Type      EventType       `json:"type"`
	Snapshot  engine.Snapshot `json:"snapshot"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent builds an event for snap, classifying it by status and overlays
func NewEvent(sessionID string, snap engine.Snapshot) Event {
	return Event{
		SessionID: sessionID,
		Type:      Classify(snap),
		Snapshot:  snap,
		Timestamp: time.Now(),
	}
}

// Classify picks the event type a snapshot represents
func Classify(snap engine.Snapshot) EventType {
	switch {
	case snap.Status == engine.StatusWon && snap.ShowVictoryScreen:
		return EventVictory
	case snap.Status == engine.StatusLost && snap.ShowDefeatScreen:
		return EventDefeat
	case snap.Status == engine.StatusLoading:
		return EventReset
	case snap.Status == engine.StatusError:
		return EventError
	default:
		return EventStateUpdate
	}
}

// Subscription receives the events of one session
type Subscription struct {
	hub       *Hub
	sessionID string
	send      chan Event
	closeOnce sync.Once
}

// Events returns the receive channel; it is closed when the subscription ends
func (s *Subscription) Events() <-chan Event {
	return s.send
}

// SessionID returns the subscribed session
func (s *Subscription) SessionID() string {
	return s.sessionID
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription) Close() {
	select {
	case s.hub.unregister <- s:
	case <-s.hub.done:
	}
}

func (s *Subscription) closeSend() {
	s.closeOnce.Do(func() { close(s.send) })
}

type countRequest struct {
	sessionID string
	reply     chan int
}

// Option configures a Hub
type Option func(*Hub)

// WithBufferSize sets the per-subscriber queue length
func WithBufferSize(n int) Option {
	return func(h *Hub) { h.bufferSize = n }
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Hub) { h.log = log }
}

// Hub maintains the set of subscriptions and broadcasts events
type Hub struct {
	// Registered subscriptions by session ID
	sessions map[string]map[*Subscription]bool

	// Events to deliver
	broadcast chan Event

	// Register requests from subscribers
	register chan *Subscription

	// Unregister requests from subscribers
	unregister chan *Subscription

	count chan countRequest

	// Closed when Run returns
	done chan struct{}

	bufferSize int
	log        logrus.FieldLogger
}

// NewHub creates a new hub; call Run to start delivering
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		sessions:   make(map[string]map[*Subscription]bool),
		broadcast:  make(chan Event),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		count:      make(chan countRequest),
		done:       make(chan struct{}),
		bufferSize: DefaultBufferSize,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop and blocks until ctx is cancelled. All
// remaining subscriptions are closed on return.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for _, subs := range h.sessions {
			for sub := range subs {
				sub.closeSend()
			}
		}
		h.sessions = make(map[string]map[*Subscription]bool)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.register:
			h.registerSubscription(sub)

		case sub := <-h.unregister:
			h.unregisterSubscription(sub)

		case ev := <-h.broadcast:
			h.deliver(ev)

		case req := <-h.count:
			req.reply <- len(h.sessions[req.sessionID])
		}
	}
}

// Subscribe registers a new subscription for sessionID. If the hub has
// stopped the returned subscription is already closed.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	sub := &Subscription{
		hub:       h,
		sessionID: sessionID,
		send:      make(chan Event, h.bufferSize),
	}

	select {
	case h.register <- sub:
	case <-h.done:
		sub.closeSend()
	}
	return sub
}

// Publish delivers ev to the subscribers of its session. It returns once the
// hub has accepted the event, or immediately if the hub has stopped.
func (h *Hub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case h.broadcast <- ev:
	case <-h.done:
	}
}

// PublishSnapshot classifies and publishes a snapshot
func (h *Hub) PublishSnapshot(sessionID string, snap engine.Snapshot) {
	h.Publish(NewEvent(sessionID, snap))
}

// SubscriberCount returns the number of subscriptions for sessionID
func (h *Hub) SubscriberCount(sessionID string) int {
	req := countRequest{sessionID: sessionID, reply: make(chan int, 1)}
	select {
	case h.count <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

// registerSubscription adds a subscription to a session
func (h *Hub) registerSubscription(sub *Subscription) {
	if h.sessions[sub.sessionID] == nil {
		h.sessions[sub.sessionID] = make(map[*Subscription]bool)
	}
	h.sessions[sub.sessionID][sub] = true

	h.log.WithFields(logrus.Fields{
		"session_id":  sub.sessionID,
		"subscribers": len(h.sessions[sub.sessionID]),
	}).Debug("Subscriber registered")
}

// unregisterSubscription removes a subscription from a session
func (h *Hub) unregisterSubscription(sub *Subscription) {
	subs, ok := h.sessions[sub.sessionID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	sub.closeSend()

	// Clean up empty sessions
	if len(subs) == 0 {
		delete(h.sessions, sub.sessionID)
	}

	h.log.WithFields(logrus.Fields{
		"session_id":  sub.sessionID,
		"subscribers": len(subs),
	}).Debug("Subscriber unregistered")
}

// deliver sends an event to every subscriber of its session
func (h *Hub) deliver(ev Event) {
	for sub := range h.sessions[ev.SessionID] {
		select {
		case sub.send <- ev:
		default:
			// Subscriber's queue is full, drop it
			h.log.WithField("session_id", ev.SessionID).Warn("Dropping slow subscriber")
			h.unregisterSubscription(sub)
		}
	}
}
