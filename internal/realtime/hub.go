package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// queueSize bounds the per-subscription event queue. A subscriber that stops
// draining loses events rather than blocking publishers; the change-feed
// consumer recovers via its full-reload fallback.
const queueSize = 128

// BoardChannel returns the channel name for a board.
func BoardChannel(boardID string) string {
	return "board-" + boardID
}

// PresenceChannelName returns the presence channel name for a board.
func PresenceChannelName(boardID string) string {
	return "presence-" + boardID
}

// Hub owns all named channels. The zero value is not usable; call NewHub.
type Hub struct {
	mu       sync.Mutex
	channels map[string]*channel
}

type channel struct {
	name     string
	hub      *Hub
	mu       sync.Mutex
	subs     map[string]*Subscription
	presence map[string]PresenceState
}

// Subscription is one participant's attachment to a channel. Events are
// delivered on a dedicated goroutine, one at a time, in arrival order.
type Subscription struct {
	key      string
	ch       *channel
	handlers Handlers

	queue chan func()
	quit  chan struct{}
	once  sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{channels: make(map[string]*channel)}
}

// Subscribe attaches to the named channel, creating it if needed, and
// delivers an initial presence sync snapshot. The returned subscription's
// key is unique per connection: a user with multiple connections appears
// once per connection, and a reconnect produces a new key.
func (h *Hub) Subscribe(name string, handlers Handlers) *Subscription {
	h.mu.Lock()
	ch, ok := h.channels[name]
	if !ok {
		ch = &channel{
			name:     name,
			hub:      h,
			subs:     make(map[string]*Subscription),
			presence: make(map[string]PresenceState),
		}
		h.channels[name] = ch
	}
	h.mu.Unlock()

	sub := &Subscription{
		key:      ulid.Make().String(),
		ch:       ch,
		handlers: handlers,
		queue:    make(chan func(), queueSize),
		quit:     make(chan struct{}),
	}
	go sub.pump()

	ch.mu.Lock()
	ch.subs[sub.key] = sub
	snapshot := ch.presenceSnapshotLocked()
	ch.mu.Unlock()

	sub.deliver(func() {
		if sub.handlers.OnPresenceSync != nil {
			sub.handlers.OnPresenceSync(snapshot)
		}
	})
	return sub
}

// PublishChange delivers a change-feed event to every subscriber of the
// named channel. Publishing to a channel with no subscribers is a no-op.
func (h *Hub) PublishChange(name string, ev ChangeEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	h.mu.Lock()
	ch, ok := h.channels[name]
	h.mu.Unlock()
	if !ok {
		return
	}

	ch.mu.Lock()
	subs := ch.subsLocked()
	ch.mu.Unlock()

	for _, s := range subs {
		s := s
		s.deliver(func() {
			if s.handlers.OnChange != nil {
				s.handlers.OnChange(ev)
			}
		})
	}
}

// Participant describes one tracked presence entry, for admin reporting.
type Participant struct {
	Channel string
	Key     string
	State   PresenceState
}

// Participants returns every tracked presence entry across all channels.
func (h *Hub) Participants() []Participant {
	h.mu.Lock()
	chans := make([]*channel, 0, len(h.channels))
	for _, ch := range h.channels {
		chans = append(chans, ch)
	}
	h.mu.Unlock()

	var out []Participant
	for _, ch := range chans {
		ch.mu.Lock()
		for key, state := range ch.presence {
			out = append(out, Participant{Channel: ch.name, Key: key, State: state})
		}
		ch.mu.Unlock()
	}
	return out
}

// ConnectedCount returns the number of tracked participants across all channels.
func (h *Hub) ConnectedCount() int {
	return len(h.Participants())
}

func (c *channel) subsLocked() []*Subscription {
	out := make([]*Subscription, 0, len(c.subs))
	for _, s := range c.subs {
		out = append(out, s)
	}
	return out
}

func (c *channel) presenceSnapshotLocked() map[string]PresenceState {
	snap := make(map[string]PresenceState, len(c.presence))
	for k, v := range c.presence {
		snap[k] = v
	}
	return snap
}

// removeIfEmpty drops the channel from the hub once its last subscriber leaves.
func (c *channel) removeIfEmpty() {
	c.hub.mu.Lock()
	defer c.hub.mu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) == 0 {
		delete(c.hub.channels, c.name)
	}
}

// Key returns the subscription's participant key.
func (s *Subscription) Key() string {
	return s.key
}

// Track publishes the full presence state record for this subscription,
// replacing any previous record. Other subscribers observe a join event the
// first time, and a sync snapshot on every change.
func (s *Subscription) Track(state PresenceState) {
	c := s.ch
	c.mu.Lock()
	if _, ok := c.subs[s.key]; !ok {
		// Already closed; a late track must not resurrect the entry.
		c.mu.Unlock()
		return
	}
	_, existed := c.presence[s.key]
	c.presence[s.key] = state
	subs := c.subsLocked()
	snapshot := c.presenceSnapshotLocked()
	c.mu.Unlock()

	for _, other := range subs {
		other := other
		other.deliver(func() {
			if !existed && other.key != s.key && other.handlers.OnPresenceJoin != nil {
				other.handlers.OnPresenceJoin(s.key, state)
			}
			if other.handlers.OnPresenceSync != nil {
				other.handlers.OnPresenceSync(snapshot)
			}
		})
	}
}

// Broadcast sends a named message to every other subscriber on the channel.
// Delivery is fire-and-forget: no persistence, no ordering guarantee
// relative to the change feed.
func (s *Subscription) Broadcast(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("realtime: marshal broadcast %q: %w", event, err)
	}
	ev := BroadcastEvent{Event: event, Payload: raw, At: time.Now()}

	c := s.ch
	c.mu.Lock()
	subs := c.subsLocked()
	c.mu.Unlock()

	for _, other := range subs {
		if other.key == s.key {
			continue
		}
		other := other
		other.deliver(func() {
			if other.handlers.OnBroadcast != nil {
				other.handlers.OnBroadcast(ev)
			}
		})
	}
	return nil
}

// Close leaves the channel. Idempotent. Other subscribers observe a leave
// event and a sync snapshot if this subscription had tracked presence.
func (s *Subscription) Close() {
	s.once.Do(func() {
		c := s.ch
		c.mu.Lock()
		delete(c.subs, s.key)
		state, tracked := c.presence[s.key]
		delete(c.presence, s.key)
		subs := c.subsLocked()
		snapshot := c.presenceSnapshotLocked()
		c.mu.Unlock()

		if tracked {
			for _, other := range subs {
				other := other
				other.deliver(func() {
					if other.handlers.OnPresenceLeave != nil {
						other.handlers.OnPresenceLeave(s.key, state)
					}
					if other.handlers.OnPresenceSync != nil {
						other.handlers.OnPresenceSync(snapshot)
					}
				})
			}
		}

		close(s.quit)
		c.removeIfEmpty()
	})
}

// deliver enqueues a callback for serialized execution on the pump
// goroutine. Events for a full or closed queue are dropped.
func (s *Subscription) deliver(fn func()) {
	select {
	case <-s.quit:
	case s.queue <- fn:
	default:
		log.Printf("realtime: %s: subscriber %s queue full, dropping event", s.ch.name, s.key)
	}
}

func (s *Subscription) pump() {
	for {
		select {
		case fn := <-s.queue:
			fn()
		case <-s.quit:
			// Drain anything already queued, then stop.
			for {
				select {
				case fn := <-s.queue:
					fn()
				default:
					return
				}
			}
		}
	}
}
