package models

import "time"

// ProcessedEvent is one row per webhook event identifier once processing has
// started. The unique index on EventID is the idempotency backstop: a
// conflict-ignoring insert against it is what makes redelivery a no-op.
// Rows are never updated or deleted.
type ProcessedEvent struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	EventID   string    `gorm:"column:event_id;type:varchar(128);not null;uniqueIndex" json:"event_id"`
	EventType string    `gorm:"column:event_type;type:varchar(128);not null" json:"event_type"`
	CreatedAt time.Time `json:"created_at"`
}

func (ProcessedEvent) TableName() string { return "processed_event" }
