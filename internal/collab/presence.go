package collab

import (
	"sync"

	"github.com/PRANJALBANSALJI/Kanban/internal/realtime"
)

// User describes the local participant joining a presence channel.
type User struct {
	ID        string
	Name      string
	AvatarURL string
}

// Presence tracks the local participant's ephemeral state on a board and
// mirrors the merged state of everyone else. Each participant owns and
// republishes only its own record; the merged view needs no cross-client
// coordination. State lives only for the lifetime of the subscription and is
// rebuilt from scratch on reconnect.
type Presence struct {
	hub     *realtime.Hub
	boardID string
	user    User

	mu     sync.Mutex
	sub    *realtime.Subscription
	joined bool
	self   realtime.PresenceState
	others map[string]realtime.PresenceState
}

// NewPresence prepares a presence channel for the board. No state is
// published until Join.
func NewPresence(hub *realtime.Hub, boardID string, user User) *Presence {
	return &Presence{
		hub:     hub,
		boardID: boardID,
		user:    user,
		others:  make(map[string]realtime.PresenceState),
	}
}

// Join subscribes to the board's presence channel and publishes the initial
// record: status online, no cursor, no focused card. Update calls made
// before Join are dropped, not queued.
func (p *Presence) Join() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.joined {
		return
	}

	p.sub = p.hub.Subscribe(realtime.PresenceChannelName(p.boardID), realtime.Handlers{
		OnPresenceSync: p.absorbSync,
	})
	p.self = realtime.PresenceState{
		UserID:    p.user.ID,
		UserName:  p.user.Name,
		AvatarURL: p.user.AvatarURL,
		Status:    realtime.StatusOnline,
	}
	p.sub.Track(p.self)
	p.joined = true
}

// absorbSync replaces the merged view from a channel snapshot, excluding the
// local participant's own connection key.
func (p *Presence) absorbSync(states map[string]realtime.PresenceState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	merged := make(map[string]realtime.PresenceState, len(states))
	selfKey := ""
	if p.sub != nil {
		selfKey = p.sub.Key()
	}
	for key, state := range states {
		if key == selfKey {
			continue
		}
		merged[key] = state
	}
	p.others = merged
}

// UpdateCursorPosition republishes the full state record with the cursor
// replaced. A no-op before Join completes.
func (p *Presence) UpdateCursorPosition(x, y float64) {
	p.republish(func(s *realtime.PresenceState) {
		s.Cursor = &realtime.CursorPosition{X: x, Y: y}
	})
}

// UpdateCurrentCard republishes the full state record with the focused card
// replaced. An empty cardID clears the focus. A no-op before Join completes.
func (p *Presence) UpdateCurrentCard(cardID string) {
	p.republish(func(s *realtime.PresenceState) {
		s.CurrentCardID = cardID
	})
}

// UpdateStatus republishes the full state record with the status replaced.
func (p *Presence) UpdateStatus(status string) {
	p.republish(func(s *realtime.PresenceState) {
		s.Status = status
	})
}

// republish applies mutate to the local record and tracks the whole record
// again. The entire record is the unit of replication, so unrelated fields
// are carried forward.
func (p *Presence) republish(mutate func(*realtime.PresenceState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.joined {
		return
	}
	mutate(&p.self)
	p.sub.Track(p.self)
}

// Others returns the merged state of every other participant, keyed by
// participant key. The local participant is never included.
func (p *Presence) Others() map[string]realtime.PresenceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]realtime.PresenceState, len(p.others))
	for k, v := range p.others {
		out[k] = v
	}
	return out
}

// Leave departs the channel, removing this participant from all other
// clients' views. Idempotent. A later Join produces a new participant key.
func (p *Presence) Leave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.joined {
		return
	}
	p.sub.Close()
	p.sub = nil
	p.joined = false
	p.others = make(map[string]realtime.PresenceState)
}
