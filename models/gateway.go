package models

import (
	"time"

	"gorm.io/gorm"
)

// GatewayCustomer links a local user to the payment provider's customer
// record. The unique index on UserID is what resolves the lazy-creation
// race: the second concurrent insert fails and re-reads the winner.
type GatewayCustomer struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     string         `gorm:"uniqueIndex;not null" json:"user_id"`
	CustomerID string         `gorm:"not null" json:"customer_id"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

type SubscriptionStatus string

const (
	SubscriptionNotStarted SubscriptionStatus = "not_started"
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
)

type GatewaySubscription struct {
	ID         uint               `gorm:"primaryKey" json:"id"`
	CustomerID string             `gorm:"uniqueIndex;not null" json:"customer_id"`
	Status     SubscriptionStatus `gorm:"type:VARCHAR(20);default:'not_started'" json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}
