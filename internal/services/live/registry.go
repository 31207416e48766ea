package live

import (
	"log"
	"sync"
	"time"
)

const (
	// DefaultHeartbeatTimeout is how long a subscriber may go silent
	// before its connection is evicted.
	DefaultHeartbeatTimeout = 90 * time.Second

	subscriberBuffer = 16
)

// Event is one message pushed to a connected client.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Subscription is one live connection for a user. Events arrive on Events();
// the owner must call Close when the connection ends.
type Subscription struct {
	userID   uint
	events   chan Event
	lastSeen time.Time

	registry *Registry
	once     sync.Once
}

func (s *Subscription) Events() <-chan Event { return s.events }

func (s *Subscription) Close() {
	s.once.Do(func() { s.registry.remove(s) })
}

// Registry tracks live connections per user and fans events out to every
// open subscription. Stale connections that stop heartbeating are evicted
// so abandoned mobile sessions do not pile up.
type Registry struct {
	mu      sync.RWMutex
	subs    map[uint]map[*Subscription]struct{}
	timeout time.Duration
	done    chan struct{}
}

func NewRegistry(heartbeatTimeout time.Duration) *Registry {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = DefaultHeartbeatTimeout
	}
	r := &Registry{
		subs:    make(map[uint]map[*Subscription]struct{}),
		timeout: heartbeatTimeout,
		done:    make(chan struct{}),
	}
	go r.evictLoop()
	return r
}

func (r *Registry) Subscribe(userID uint) *Subscription {
	sub := &Subscription{
		userID:   userID,
		events:   make(chan Event, subscriberBuffer),
		lastSeen: time.Now(),
		registry: r,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subs[userID] == nil {
		r.subs[userID] = make(map[*Subscription]struct{})
	}
	r.subs[userID][sub] = struct{}{}
	return sub
}

// Publish delivers an event to every open connection of the user. Slow
// consumers whose buffers are full miss the event rather than block the
// publisher.
func (r *Registry) Publish(userID uint, event Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for sub := range r.subs[userID] {
		select {
		case sub.events <- event:
		default:
		}
	}
}

// Heartbeat marks the subscription alive. Called whenever the client's
// connection shows activity.
func (r *Registry) Heartbeat(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub.lastSeen = time.Now()
}

// Connections reports how many open subscriptions the user has.
func (r *Registry) Connections(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[userID])
}

func (r *Registry) remove(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(sub)
}

func (r *Registry) removeLocked(sub *Subscription) {
	set := r.subs[sub.userID]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(r.subs, sub.userID)
	}
	close(sub.events)
}

func (r *Registry) evictLoop() {
	ticker := time.NewTicker(r.timeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case now := <-ticker.C:
			r.evictStale(now)
		}
	}
}

func (r *Registry) evictStale(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, set := range r.subs {
		for sub := range set {
			if now.Sub(sub.lastSeen) > r.timeout {
				log.Printf("Evicting stale live connection for user %d", userID)
				r.removeLocked(sub)
			}
		}
	}
}

// Close stops the eviction loop and drops every connection.
func (r *Registry) Close() {
	close(r.done)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, set := range r.subs {
		for sub := range set {
			r.removeLocked(sub)
		}
	}
}
