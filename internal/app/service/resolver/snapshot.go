package resolver

import (
	"fmt"
	"strings"
	"time"

	"github.com/studyflow/billing/internal/models"
	"github.com/studyflow/billing/pkg/types"
)

// SubscriptionSnapshot is the resolved view of a remote subscription at the
// moment an event is processed. It is derived, consumed and discarded per
// event; only the lifecycle log persists transitions.
type SubscriptionSnapshot struct {
	SubscriptionID    string
	CustomerID        string
	CustomerEmail     string
	CustomerName      string
	Status            types.SubscriptionStatus
	PeriodStart       time.Time
	PeriodEnd         time.Time
	CancelAtPeriodEnd bool

	PriceID   string
	ProductID string
	// Amount is in major units, derived from the provider's minor-unit
	// integer divided by 100, never parsed from display strings.
	Amount   float64
	Currency string
	Interval string

	Discount *types.Discount
	Tier     *types.Tier

	// User is nil when no local account matches the customer email.
	User     *models.User
	Language string
}

// Recipient returns the notification address: the local account email when
// resolved, otherwise the provider's customer email.
func (s *SubscriptionSnapshot) Recipient() string {
	if s.User != nil && s.User.Email != "" {
		return s.User.Email
	}
	return s.CustomerEmail
}

// RecipientName returns the display name, degrading to the provider's
// customer name when no local user matched.
func (s *SubscriptionSnapshot) RecipientName() string {
	if s.User != nil && s.User.DisplayName != "" {
		return s.User.DisplayName
	}
	return s.CustomerName
}

// UserIDPtr returns the local user id for log entries, nil when unresolved.
func (s *SubscriptionSnapshot) UserIDPtr() *string {
	if s.User == nil {
		return nil
	}
	return &s.User.ID
}

// AmountDisplay renders the resolved amount with its currency, e.g. "9.99 USD".
func (s *SubscriptionSnapshot) AmountDisplay() string {
	return FormatAmount(s.Amount, s.Currency)
}

// DiscountDisplay renders the applied discount in a human-readable form, or
// an empty string when no discount applies.
func (s *SubscriptionSnapshot) DiscountDisplay() string {
	d := s.Discount
	if d == nil {
		return ""
	}
	var off string
	if d.PercentOff > 0 {
		off = fmt.Sprintf("%g%% off", d.PercentOff)
	} else {
		off = fmt.Sprintf("%s off", FormatAmount(d.AmountOff, d.Currency))
	}
	switch d.Duration {
	case types.DiscountDurationForever:
		return off + " forever"
	case types.DiscountDurationRepeating:
		return fmt.Sprintf("%s for %d months", off, d.DurationInMonths)
	default:
		return off
	}
}

// FormatAmount renders a major-unit amount with an upper-cased currency code.
func FormatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, strings.ToUpper(currency))
}

// FormatDate renders a billing-period boundary for notification payloads.
func FormatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
