package models

import (
	"strconv"
	"time"
)

// User is a chat participant, keyed by the platform chat id.
type User struct {
	UserID       int64      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username     string     `gorm:"size:64;index" json:"username"`
	FirstName    string     `gorm:"size:255" json:"first_name"`
	LastName     string     `gorm:"size:255" json:"last_name"`
	JoinedAt     time.Time  `gorm:"not null;index" json:"joined_at"`
	LastActiveAt time.Time  `gorm:"not null;index" json:"last_active_at"`
	IsBanned     bool       `gorm:"not null;default:false;index" json:"is_banned"`
	BanReason    string     `gorm:"size:1000" json:"ban_reason,omitempty"`
	BannedBy     *int64     `json:"banned_by,omitempty"`
	BannedAt     *time.Time `json:"banned_at,omitempty"`
	LinkVisits   int64      `gorm:"not null;default:0" json:"link_visits"`
}

// DisplayName prefers the first name, then the handle, then the id.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return strconv.FormatInt(u.UserID, 10)
}
