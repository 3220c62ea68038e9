package models

import "time"

// AuditLog records a user-visible action for the admin activity feed.
// Writes are advisory: they never block or fail the primary mutation.
type AuditLog struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	UserID     string `gorm:"size:36;index"`
	Action     string `gorm:"size:64;not null"`
	EntityType string `gorm:"size:16"` // board, column, card, user
	EntityID   string `gorm:"size:36"`
	EntityName string `gorm:"size:256"`
	BoardID    string `gorm:"size:36;index"`
	OldValues  string `gorm:"type:json"`
	NewValues  string `gorm:"type:json"`
	Metadata   string `gorm:"type:json"`
	CreatedAt  time.Time `gorm:"index"`
}

// Notification is an in-app message for a single user.
type Notification struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	UserID  string `gorm:"size:36;not null;index"`
	Type    string `gorm:"size:16;not null"` // assignment, mention, board_change, due_date
	Title   string `gorm:"size:256;not null"`
	Message string `gorm:"type:text"`
	BoardID string `gorm:"size:36"`
	CardID  string `gorm:"size:36"`
	Data    string `gorm:"type:json"`
	Read    bool   `gorm:"default:false;index"`
	CreatedAt time.Time
}
