// Package audit records user-visible actions for the admin activity feed.
// Every write is advisory: failures are logged and swallowed so the primary
// mutation never blocks on, or fails because of, its audit trail.
package audit

import (
	"encoding/json"
	"log"

	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// Entity types recorded in the audit log.
const (
	EntityBoard  = "board"
	EntityColumn = "column"
	EntityCard   = "card"
	EntityUser   = "user"
)

// Entry describes one auditable action.
type Entry struct {
	Action     string
	EntityType string
	EntityID   string
	EntityName string
	BoardID    string
	OldValues  any
	NewValues  any
	Metadata   any
}

// Logger writes audit entries.
type Logger struct {
	db *gorm.DB
}

// NewLogger creates a Logger over the given database.
func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// Log writes one entry on behalf of userID. Best-effort.
func (l *Logger) Log(userID string, e Entry) {
	if l == nil || l.db == nil || userID == "" {
		return
	}
	row := models.AuditLog{
		UserID:     userID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		EntityName: e.EntityName,
		BoardID:    e.BoardID,
		OldValues:  toJSON(e.OldValues),
		NewValues:  toJSON(e.NewValues),
		Metadata:   toJSON(e.Metadata),
	}
	if err := l.db.Create(&row).Error; err != nil {
		log.Printf("audit: write %s: %v", e.Action, err)
	}
}

// BoardCreated records a new board.
func (l *Logger) BoardCreated(userID, boardID, title string) {
	l.Log(userID, Entry{Action: "board_created", EntityType: EntityBoard, EntityID: boardID, EntityName: title, BoardID: boardID})
}

// BoardUpdated records a board rename or description change.
func (l *Logger) BoardUpdated(userID, boardID, title string, oldValues, newValues any) {
	l.Log(userID, Entry{Action: "board_updated", EntityType: EntityBoard, EntityID: boardID, EntityName: title, BoardID: boardID, OldValues: oldValues, NewValues: newValues})
}

// BoardDeleted records a board removal.
func (l *Logger) BoardDeleted(userID, boardID, title string) {
	l.Log(userID, Entry{Action: "board_deleted", EntityType: EntityBoard, EntityID: boardID, EntityName: title, BoardID: boardID})
}

// ColumnCreated records a new column.
func (l *Logger) ColumnCreated(userID, columnID, title, boardID string) {
	l.Log(userID, Entry{Action: "column_created", EntityType: EntityColumn, EntityID: columnID, EntityName: title, BoardID: boardID})
}

// CardCreated records a new card.
func (l *Logger) CardCreated(userID, cardID, title, boardID, columnID string) {
	l.Log(userID, Entry{Action: "card_created", EntityType: EntityCard, EntityID: cardID, EntityName: title, BoardID: boardID, Metadata: map[string]string{"column_id": columnID}})
}

// CardMoved records a card relocation between columns.
func (l *Logger) CardMoved(userID, cardID, title, boardID, fromColumn, toColumn string) {
	l.Log(userID, Entry{
		Action:     "card_moved",
		EntityType: EntityCard,
		EntityID:   cardID,
		EntityName: title,
		BoardID:    boardID,
		OldValues:  map[string]string{"column_id": fromColumn},
		NewValues:  map[string]string{"column_id": toColumn},
	})
}

// CardUpdated records card field changes.
func (l *Logger) CardUpdated(userID, cardID, title, boardID string, oldValues, newValues any) {
	l.Log(userID, Entry{Action: "card_updated", EntityType: EntityCard, EntityID: cardID, EntityName: title, BoardID: boardID, OldValues: oldValues, NewValues: newValues})
}

// CardDeleted records a card removal.
func (l *Logger) CardDeleted(userID, cardID, title, boardID string) {
	l.Log(userID, Entry{Action: "card_deleted", EntityType: EntityCard, EntityID: cardID, EntityName: title, BoardID: boardID})
}

// UserJoinedBoard records a membership addition.
func (l *Logger) UserJoinedBoard(actorID, userID, userName, boardID string) {
	l.Log(actorID, Entry{Action: "user_joined_board", EntityType: EntityUser, EntityID: userID, EntityName: userName, BoardID: boardID})
}

func toJSON(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("audit: marshal values: %v", err)
		return ""
	}
	return string(data)
}
