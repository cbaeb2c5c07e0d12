package models

import "time"

type ReportStatus string

// Open is the only live status; answered and closed are terminal.
const (
	ReportOpen     ReportStatus = "open"
	ReportAnswered ReportStatus = "answered"
	ReportClosed   ReportStatus = "closed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportOpen, ReportAnswered, ReportClosed:
		return true
	}
	return false
}

func (s ReportStatus) Terminal() bool {
	return s == ReportAnswered || s == ReportClosed
}

// Report is a user-submitted complaint routed to the administrators.
type Report struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	UserID     int64        `gorm:"not null;index" json:"user_id"`
	Message    string       `gorm:"type:text;not null" json:"message"`
	Status     ReportStatus `gorm:"size:20;not null;default:'open';index" json:"status"`
	Answer     string       `gorm:"type:text" json:"answer,omitempty"`
	AnsweredBy *int64       `json:"answered_by,omitempty"`
	AnsweredAt *time.Time   `json:"answered_at,omitempty"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
