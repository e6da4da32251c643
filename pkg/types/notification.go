package types

type NotificationType string

const (
	NotificationSubscriptionCreated    NotificationType = "subscription_created"
	NotificationSubscriptionRenewed    NotificationType = "subscription_renewed"
	NotificationSubscriptionCancelled  NotificationType = "subscription_cancelled"
	NotificationSubscriptionPaused     NotificationType = "subscription_paused"
	NotificationSubscriptionResumed    NotificationType = "subscription_resumed"
	NotificationSubscriptionEndingSoon NotificationType = "subscription_ending_soon"
	NotificationPaymentFailed          NotificationType = "payment_failed"
)

// NotificationRequest is the unit handed to the notification dispatcher.
// Payload fields are pre-formatted by the caller; the dispatcher owns
// templating, localization and delivery.
type NotificationRequest struct {
	Type      NotificationType  `json:"type"`
	Recipient string            `json:"recipient"`
	Language  string            `json:"language"`
	Payload   map[string]string `json:"payload"`
}
