package models

import "time"

type ContentType string

const (
	ContentText     ContentType = "text"
	ContentPhoto    ContentType = "photo"
	ContentDocument ContentType = "document"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentText, ContentPhoto, ContentDocument:
		return true
	}
	return false
}

// Link binds stored content to a short code resolved through the start parameter.
type Link struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"size:20;not null;uniqueIndex" json:"code"`
	ContentType ContentType `gorm:"size:20;not null" json:"content_type"`
	ContentText string      `gorm:"type:text" json:"content_text,omitempty"`
	FileID      string      `gorm:"size:255" json:"file_id,omitempty"`
	CreatedBy   int64       `gorm:"not null;index" json:"created_by"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
	Visits      int64       `gorm:"not null;default:0" json:"visits"`
	LastVisitAt *time.Time  `json:"last_visit_at,omitempty"`
}
