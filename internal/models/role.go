package models

import "time"

type Admin struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username  string    `gorm:"size:64" json:"username"`
	AddedBy   int64     `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

type Developer struct {
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Username  string    `gorm:"size:64" json:"username"`
	AddedBy   int64     `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}
