package model

import "time"

// Reservation is the per-machine record row. The occupant session is inlined
// as nullable columns; a row with HolderName == "" has no occupant. Version
// backs the store's compare-and-update.
type Reservation struct {
	Machine          string `gorm:"primaryKey;size:128"`
	HolderName       string `gorm:"size:128"`
	Designation      string `gorm:"size:64"`
	Comment          string `gorm:"size:256"`
	PIN              string `gorm:"column:pin;size:8"`
	StartAt          *time.Time
	EndAt            *time.Time
	TimeoutAlertSent bool `gorm:"not null"`
	LastFreeAt       *time.Time
	Version          int64     `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}
