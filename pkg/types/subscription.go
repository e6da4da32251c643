package types

type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPaused   SubscriptionStatus = "paused"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
)

type DiscountDuration string

const (
	DiscountDurationOnce      DiscountDuration = "once"
	DiscountDurationRepeating DiscountDuration = "repeating"
	DiscountDurationForever   DiscountDuration = "forever"
)

// Discount is the resolved coupon applied to a subscription. Either
// PercentOff or AmountOff is set, never both.
type Discount struct {
	PercentOff float64 `json:"percent_off"`
	// AmountOff is in major units (provider minor units divided by 100).
	AmountOff        float64          `json:"amount_off"`
	Currency         string           `json:"currency"`
	Duration         DiscountDuration `json:"duration"`
	DurationInMonths int64            `json:"duration_in_months"`
}
