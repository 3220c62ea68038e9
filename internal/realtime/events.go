// Package realtime implements named per-board channels carrying three event
// families: presence (sync/join/leave), change-feed (per-table
// insert/update/delete) and broadcast (arbitrary named messages). Delivery is
// at-least-once per subscriber with no ordering guarantee across families.
package realtime

import (
	"encoding/json"
	"time"
)

// ChangeType identifies the kind of row-level mutation in a ChangeEvent.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Tables reported on the change feed.
const (
	TableCards   = "cards"
	TableColumns = "columns"
)

// ChangeEvent is a row-level change notification from the durable store.
// Row carries the new row for inserts and updates; OldRow carries the prior
// row for updates and deletes. Consumers must treat an event as a signal to
// re-fetch or merge, not as a definitive diff.
type ChangeEvent struct {
	Table   string          `json:"table"`
	Type    ChangeType      `json:"type"`
	BoardID string          `json:"board_id"`
	Row     json.RawMessage `json:"row,omitempty"`
	OldRow  json.RawMessage `json:"old_row,omitempty"`
	At      time.Time       `json:"at"`
}

// BroadcastEvent is a fire-and-forget, non-persisted message delivered to all
// current channel subscribers except the sender.
type BroadcastEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	At      time.Time       `json:"at"`
}

// CursorPosition is a screen coordinate pair.
type CursorPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresenceState is the ephemeral record each participant publishes about
// itself. The entire record is the unit of replication: publishing replaces
// the participant's previous record wholesale.
type PresenceState struct {
	UserID        string          `json:"user_id"`
	UserName      string          `json:"user_name"`
	AvatarURL     string          `json:"avatar_url,omitempty"`
	Cursor        *CursorPosition `json:"cursor_position,omitempty"`
	CurrentCardID string          `json:"current_card_id,omitempty"`
	Status        string          `json:"status"`
}

// Presence statuses.
const (
	StatusOnline = "online"
	StatusAway   = "away"
)

// Handlers receives channel events. Any handler may be nil. Handlers for one
// subscription are never invoked concurrently with each other.
type Handlers struct {
	OnChange        func(ChangeEvent)
	OnBroadcast     func(BroadcastEvent)
	OnPresenceSync  func(states map[string]PresenceState)
	OnPresenceJoin  func(key string, state PresenceState)
	OnPresenceLeave func(key string, state PresenceState)
}
