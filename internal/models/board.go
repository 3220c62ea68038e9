package models

import "time"

// Board is a named collection of columns representing one project.
type Board struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	OwnerID     string `gorm:"size:36;not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Owner   *Profile      `gorm:"foreignKey:OwnerID"`
	Columns []Column      `gorm:"foreignKey:BoardID"`
	Members []BoardMember `gorm:"foreignKey:BoardID"`
	Labels  []Label       `gorm:"foreignKey:BoardID"`
}

// BoardMember links a profile to a board with a board-level role.
// Role is one of "owner", "admin" or "member"; access decisions go through
// the capability helpers below rather than string checks at call sites.
type BoardMember struct {
	BoardID   string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:36"`
	Role      string `gorm:"size:16;default:member"`
	CreatedAt time.Time

	Board   Board    `gorm:"foreignKey:BoardID"`
	Profile *Profile `gorm:"foreignKey:UserID"`
}

// Board-level roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// CanEdit reports whether the member may mutate columns and cards.
func (m *BoardMember) CanEdit() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin || m.Role == RoleMember
}

// CanManageBoard reports whether the member may rename or delete the board
// and manage its membership.
func (m *BoardMember) CanManageBoard() bool {
	return m.Role == RoleOwner || m.Role == RoleAdmin
}
