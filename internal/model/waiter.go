package model

import "time"

// Waiter is one queue entry row. Slot is the position within the machine's
// queue; rows are read ordered by slot ascending. Appends insert at
// max(slot)+1 so a join never rewrites the rest of the queue.
type Waiter struct {
	ID           string `gorm:"primaryKey;size:36"`
	Machine      string `gorm:"index;size:128;not null"`
	Slot         int    `gorm:"not null"`
	Name         string `gorm:"size:128;not null"`
	Designation  string `gorm:"size:64"`
	Comment      string `gorm:"size:256"`
	PIN          string `gorm:"column:pin;size:8;not null"`
	Urgent       bool   `gorm:"not null"`
	UrgentReason string `gorm:"size:256"`
	JoinedAt     time.Time `gorm:"not null"`
}
