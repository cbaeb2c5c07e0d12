package models

import "time"

// SettingsRowID is the primary key of the singleton settings row.
const SettingsRowID = 1

type Settings struct {
	ID                    uint      `gorm:"primaryKey" json:"-"`
	LinkLimit             int       `gorm:"not null;default:10" json:"link_limit"`
	ReportLimit           int       `gorm:"not null;default:5" json:"report_limit"`
	ReportCooldownMinutes int       `gorm:"not null;default:5" json:"report_cooldown_minutes"`
	LinkCodeLength        int       `gorm:"not null;default:8" json:"link_code_length"`
	Notifications         bool      `gorm:"not null;default:true" json:"notifications"`
	AutoClose             bool      `gorm:"not null;default:false" json:"auto_close"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func DefaultSettings() Settings {
	return Settings{
		ID:                    SettingsRowID,
		LinkLimit:             10,
		ReportLimit:           5,
		ReportCooldownMinutes: 5,
		LinkCodeLength:        8,
		Notifications:         true,
		AutoClose:             false,
	}
}

func (s Settings) ReportCooldown() time.Duration {
	return time.Duration(s.ReportCooldownMinutes) * time.Minute
}
