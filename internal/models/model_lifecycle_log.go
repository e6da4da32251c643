package models

import (
	"time"

	"gorm.io/datatypes"
)

// LifecycleLog records subscription state transitions.
// Use case: audit and troubleshooting; never mutated or deleted.
type LifecycleLog struct {
	ID             string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string `gorm:"column:subscription_id;type:varchar(128);index;not null" json:"subscription_id"`
	CustomerID     string `gorm:"column:customer_id;type:varchar(128);not null" json:"customer_id"`
	// UserID is nil when no local account matched the customer email.
	UserID         *string `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	EventType      string  `gorm:"column:event_type;type:varchar(128);not null" json:"event_type"`
	PreviousStatus *string `gorm:"column:previous_status;type:varchar(64)" json:"previous_status"`
	NewStatus      *string `gorm:"column:new_status;type:varchar(64)" json:"new_status"`
	// Metadata stores additional context such as period boundaries and amounts.
	Metadata  datatypes.JSONMap `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

func (LifecycleLog) TableName() string { return "subscription_lifecycle_log" }
