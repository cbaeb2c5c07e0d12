package models

import (
	"time"

	"github.com/google/uuid"
)

type BroadcastKind string

const (
	BroadcastText  BroadcastKind = "text"
	BroadcastPhoto BroadcastKind = "photo"
)

// Broadcast is the summary row written when a bulk send finishes.
type Broadcast struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	RunID        uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"run_id"`
	Kind         BroadcastKind `gorm:"size:20;not null" json:"kind"`
	MessageText  string        `gorm:"type:text" json:"message_text"`
	SentBy       int64         `gorm:"not null" json:"sent_by"`
	Total        int           `json:"total"`
	SuccessCount int           `json:"success_count"`
	FailedCount  int           `json:"failed_count"`
	Cancelled    bool          `json:"cancelled"`
	StartedAt    time.Time     `gorm:"not null;index" json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
}
