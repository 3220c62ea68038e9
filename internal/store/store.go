// Package store is the durable-store layer: scoped queries, inserts
// returning the created row, updates and deletes by primary key. Successful
// card and column mutations are reported to the realtime hub as change-feed
// events.
package store

import (
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/realtime"
)

// Store wraps the database and the optional realtime hub. A nil hub
// disables change-feed emission.
type Store struct {
	db  *gorm.DB
	hub *realtime.Hub
}

// New creates a Store. hub may be nil.
func New(db *gorm.DB, hub *realtime.Hub) *Store {
	return &Store{db: db, hub: hub}
}

// DB exposes the underlying gorm handle for read-only reporting queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// emitChange publishes a row-level change event on the board's channel.
// Emission is best-effort and happens after the transaction commits, so a
// consumer may observe the event before or long after its own optimistic
// update; at-least-once, no cross-table ordering.
func (s *Store) emitChange(table string, typ realtime.ChangeType, boardID string, oldRow, newRow any) {
	if s.hub == nil || boardID == "" {
		return
	}
	ev := realtime.ChangeEvent{
		Table:   table,
		Type:    typ,
		BoardID: boardID,
		At:      time.Now(),
	}
	ev.Row = marshalRow(newRow)
	ev.OldRow = marshalRow(oldRow)
	s.hub.PublishChange(realtime.BoardChannel(boardID), ev)
}

func marshalRow(row any) json.RawMessage {
	if row == nil {
		return nil
	}
	data, err := json.Marshal(row)
	if err != nil {
		log.Printf("store: marshal change row: %v", err)
		return nil
	}
	return data
}
