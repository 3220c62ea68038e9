package models

import "time"

// Column is an ordered bucket of cards within a board. Position is a dense
// zero-based sequence unique within the board.
type Column struct {
	ID        string `gorm:"primaryKey;size:36"`
	BoardID   string `gorm:"size:36;not null;index"`
	Title     string `gorm:"not null"`
	Position  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Cards []Card `gorm:"foreignKey:ColumnID"`
}

// Card is a single task unit belonging to exactly one column. Position is a
// dense zero-based sequence unique within the column.
type Card struct {
	ID          string     `gorm:"primaryKey;size:36"`
	ColumnID    string     `gorm:"size:36;not null;index"`
	Title       string     `gorm:"not null"`
	Description string     `gorm:"type:text"`
	Position    int        `gorm:"not null"`
	AssigneeID  *string    `gorm:"size:36;index"`
	DueDate     *time.Time `gorm:"index"`
	CreatedBy   string     `gorm:"size:36;not null"`
	// ReminderSentAt marks that a due-date reminder notification has been
	// created, so the sweep doesn't send duplicates.
	ReminderSentAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Assignee   *Profile    `gorm:"foreignKey:AssigneeID"`
	CardLabels []CardLabel `gorm:"foreignKey:CardID"`
}

// Label is a named color tag shared by any number of cards on one board.
type Label struct {
	ID      string `gorm:"primaryKey;size:36"`
	BoardID string `gorm:"size:36;not null;index"`
	Name    string `gorm:"size:64;not null"`
	Color   string `gorm:"size:16"`
}

// CardLabel joins cards to labels.
type CardLabel struct {
	CardID  string `gorm:"primaryKey;size:36"`
	LabelID string `gorm:"primaryKey;size:36"`

	Card  Card  `gorm:"foreignKey:CardID"`
	Label Label `gorm:"foreignKey:LabelID"`
}
