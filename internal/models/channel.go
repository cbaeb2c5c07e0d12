package models

import "time"

type CheckType int

const (
	// CheckAll gates every feature.
	CheckAll CheckType = 1
	// CheckLinks gates deep-link resolution only.
	CheckLinks CheckType = 2
)

func (c CheckType) Valid() bool {
	return c == CheckAll || c == CheckLinks
}

// SubscriptionChannel is a channel users must join before using the bot.
type SubscriptionChannel struct {
	ChannelID int64     `gorm:"primaryKey;autoIncrement:false" json:"channel_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Username  string    `gorm:"size:64" json:"username,omitempty"`
	CheckType CheckType `gorm:"not null;default:1" json:"check_type"`
	AddedBy   int64     `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}
