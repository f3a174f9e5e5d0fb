package model

import "time"

// PushSubscription holds the information for a browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Machines []SubscriptionMachine `gorm:"foreignKey:Endpoint;references:Endpoint;constraint:OnDelete:CASCADE"`
}

// SubscriptionMachine joins a subscription to a configured machine name.
// Machines live in configuration, not the database, so the join is by name.
type SubscriptionMachine struct {
	Endpoint string `gorm:"primaryKey"`
	Machine  string `gorm:"primaryKey;size:128"`
}
