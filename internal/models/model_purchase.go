package models

import "time"

type PurchaseStatus string

const (
	PurchaseStatusActive    PurchaseStatus = "active"
	PurchaseStatusCancelled PurchaseStatus = "cancelled"
)

// Purchase is a local record of paid access granted to a user.
// Subscription purchases carry the Stripe subscription id so cancellation
// events can find and close them.
type Purchase struct {
	ID        string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID    string `gorm:"column:user_id;type:varchar(64);index;not null" json:"user_id"`
	ProductID string `gorm:"column:product_id;type:varchar(128);not null" json:"product_id"`
	// SubscriptionID is empty for one-time purchases.
	SubscriptionID string         `gorm:"column:subscription_id;type:varchar(128);index" json:"subscription_id"`
	Status         PurchaseStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// AccessUntil is set when the purchase is cancelled: access survives until
	// the end of the already-paid billing period.
	AccessUntil *time.Time `gorm:"column:access_until;default:null" json:"access_until"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Purchase) TableName() string { return "purchase" }
