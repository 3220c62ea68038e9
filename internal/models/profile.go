package models

import "time"

// Profile is a registered user account.
type Profile struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"size:256;not null;uniqueIndex"`
	FullName     string `gorm:"size:128"`
	AvatarURL    string `gorm:"size:512"`
	PasswordHash string `gorm:"size:128;not null"`
	// Role is the site-wide role: "user" or "admin". Board-level roles
	// live on BoardMember.
	Role      string `gorm:"size:16;default:user"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the profile has the site-wide admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == "admin"
}
