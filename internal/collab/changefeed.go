// Package collab implements the client-side collaboration layer for one
// board: the change-feed subscription, the presence channel, the move
// broadcaster and the reconciliation controller that owns the in-memory
// column/card tree.
package collab

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/PRANJALBANSALJI/Kanban/internal/realtime"
)

// EventCardMove is the broadcast event name for in-flight card relocations.
const EventCardMove = "card_move"

// MovePayload announces a card relocation to other connected clients. It is
// a latency-optimizing hint, not a consistency mechanism: receivers that
// miss it converge through the change feed instead.
type MovePayload struct {
	CardID     string `json:"cardId"`
	FromColumn string `json:"fromColumn"`
	ToColumn   string `json:"toColumn"`
	Position   int    `json:"position"`
	Timestamp  int64  `json:"timestamp"` // unix milliseconds at send time
}

// ChangeFeedHandlers receives normalized board events. Any handler may be nil.
type ChangeFeedHandlers struct {
	OnCardChange   func(realtime.ChangeEvent)
	OnColumnChange func(realtime.ChangeEvent)
	OnCardMove     func(MovePayload)
}

// ChangeFeed is one board-scoped subscription that routes card changes,
// column changes and move broadcasts to their callbacks. Delivery is
// at-least-once and unordered across tables: each event is a signal to
// re-fetch or merge, never a definitive diff.
type ChangeFeed struct {
	boardID string
	sub     *realtime.Subscription
}

// SubscribeBoard establishes the board's change-feed subscription.
func SubscribeBoard(hub *realtime.Hub, boardID string, h ChangeFeedHandlers) *ChangeFeed {
	feed := &ChangeFeed{boardID: boardID}
	feed.sub = hub.Subscribe(realtime.BoardChannel(boardID), realtime.Handlers{
		OnChange: func(ev realtime.ChangeEvent) {
			if ev.BoardID != "" && ev.BoardID != boardID {
				return
			}
			switch ev.Table {
			case realtime.TableCards:
				if h.OnCardChange != nil {
					h.OnCardChange(ev)
				}
			case realtime.TableColumns:
				if h.OnColumnChange != nil {
					h.OnColumnChange(ev)
				}
			}
		},
		OnBroadcast: func(ev realtime.BroadcastEvent) {
			if ev.Event != EventCardMove || h.OnCardMove == nil {
				return
			}
			var p MovePayload
			if err := json.Unmarshal(ev.Payload, &p); err != nil {
				log.Printf("collab: board %s: bad %s payload: %v", boardID, EventCardMove, err)
				return
			}
			h.OnCardMove(p)
		},
	})
	return feed
}

// BroadcastCardMove sends a fire-and-forget move announcement on the board
// channel, timestamped at send time.
func (f *ChangeFeed) BroadcastCardMove(cardID, fromColumn, toColumn string, position int) error {
	err := f.sub.Broadcast(EventCardMove, MovePayload{
		CardID:     cardID,
		FromColumn: fromColumn,
		ToColumn:   toColumn,
		Position:   position,
		Timestamp:  time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("collab: broadcast move for card %s: %w", cardID, err)
	}
	return nil
}

// Close tears down the subscription. Idempotent; must be called when the
// consumer stops displaying the board so the subscription does not leak.
func (f *ChangeFeed) Close() {
	f.sub.Close()
}
