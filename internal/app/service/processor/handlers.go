package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v76"

	"github.com/studyflow/billing/internal/app/service/lifecyclelog"
	"github.com/studyflow/billing/internal/app/service/resolver"
	"github.com/studyflow/billing/pkg/types"
)

// handleCheckoutCompleted is the sole trigger for the purchase-confirmed
// notification. The separate customer.subscription.created event is logged
// silently (see handleSubscriptionCreated) so the welcome email fires once.
func (p *Processor) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}
	if session.Mode != stripe.CheckoutSessionModeSubscription || session.Subscription == nil {
		p.log.Infow("checkout_not_subscription", "event_id", event.ID, "mode", string(session.Mode))
		return nil
	}

	snap, err := p.deps.Resolver.ResolveSubscription(ctx, session.Subscription.ID)
	if err != nil {
		return err
	}

	p.deps.Lifecycle.Record(ctx, &lifecyclelog.Entry{
		SubscriptionID: snap.SubscriptionID,
		CustomerID:     snap.CustomerID,
		UserID:         snap.UserIDPtr(),
		EventType:      string(event.Type),
		NewStatus:      lo.ToPtr(string(snap.Status)),
		Metadata: map[string]any{
			"product_id":   snap.ProductID,
			"amount":       snap.Amount,
			"currency":     snap.Currency,
			"period_end":   resolver.FormatDate(snap.PeriodEnd),
			"checkout_ref": session.ClientReferenceID,
		},
	})

	if snap.User != nil {
		if err := p.deps.Purchases.Activate(ctx, snap.User.ID, snap.ProductID, snap.SubscriptionID); err != nil {
			p.log.Errorw("purchase_activate_failed", "event_id", event.ID, "subscription_id", snap.SubscriptionID, "error", err.Error())
		}
	} else {
		p.log.Warnw("no_local_user_for_purchase", "event_id", event.ID, "email", snap.CustomerEmail)
	}

	payload := map[string]string{
		"name":         snap.RecipientName(),
		"tier":         snap.Tier.DisplayName(snap.Language),
		"amount":       snap.AmountDisplay(),
		"interval":     snap.Interval,
		"next_billing": resolver.FormatDate(snap.PeriodEnd),
	}
	if d := snap.DiscountDisplay(); d != "" {
		payload["discount"] = d
	}
	p.notify(ctx, event, &types.NotificationRequest{
		Type:      types.NotificationSubscriptionCreated,
		Recipient: snap.Recipient(),
		Language:  snap.Language,
		Payload:   payload,
	})
	return nil
}

// handleSubscriptionCreated tracks state only. Notifying here would duplicate
// the welcome email already sent from checkout completion.
func (p *Processor) handleSubscriptionCreated(ctx context.Context, event *stripe.Event) error {
	sub, err := parseSubscription(event)
	if err != nil {
		return err
	}
	snap := p.resolveOrSnapshot(ctx, sub)
	p.deps.Lifecycle.Record(ctx, &lifecyclelog.Entry{
		SubscriptionID: snap.SubscriptionID,
		CustomerID:     snap.CustomerID,
		UserID:         snap.UserIDPtr(),
		EventType:      string(event.Type),
		NewStatus:      lo.ToPtr(string(snap.Status)),
		Metadata: map[string]any{
			"product_id": snap.ProductID,
			"period_end": resolver.FormatDate(snap.PeriodEnd),
		},
	})
	return nil
}

func (p *Processor) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	sub, err := parseSubscription(event)
	if err != nil {
		return err
	}
	snap := p.resolveOrSnapshot(ctx, sub)

	// cancel_at_period_end flipping to true is the "user scheduled a
	// cancellation" signal; plain updates are logged only.
	_, flagChanged := event.Data.PreviousAttributes["cancel_at_period_end"]
	endingSoon := snap.CancelAtPeriodEnd && flagChanged

	var prevStatus *string
	if prev, ok := event.Data.PreviousAttributes["status"].(string); ok {
		prevStatus = &prev
	}

	metadata := map[string]any{
		"cancel_at_period_end": snap.CancelAtPeriodEnd,
		"period_end":           resolver.FormatDate(snap.PeriodEnd),
	}
	p.deps.Lifecycle.Record(ctx, &lifecyclelog.Entry{
		SubscriptionID: snap.SubscriptionID,
		CustomerID:     snap.CustomerID,
		UserID:         snap.UserIDPtr(),
		EventType:      string(event.Type),
		PreviousStatus: prevStatus,
		NewStatus:      lo.ToPtr(string(snap.Status)),
		Metadata:       metadata,
	})

	if endingSoon {
		p.notify(ctx, event, &types.NotificationRequest{
			Type:      types.NotificationSubscriptionEndingSoon,
			Recipient: snap.Recipient(),
			Language:  snap.Language,
			Payload: map[string]string{
				"name":         snap.RecipientName(),
				"tier":         snap.Tier.DisplayName(snap.Language),
				"access_until": resolver.FormatDate(snap.PeriodEnd),
			},
		})
	}
	return nil
}

func (p *Processor) handleSubscriptionPaused(ctx context.Context, event *stripe.Event) error {
	sub, err := parseSubscription(event)
	if err != nil {
		return err
	}
	snap := p.resolveOrSnapshot(ctx, sub)
	p.deps.Lifecycle.Record(ctx, &lifecyclelog.Entry{
		SubscriptionID: snap.SubscriptionID,
		CustomerID:     snap.CustomerID,
		UserID:         snap.UserIDPtr(),
		EventType:      string(event.Type),
		NewStatus:      lo.ToPtr(string(types.SubscriptionStatusPaused)),
		Metadata:       map[string]any{"period_end": resolver.FormatDate(snap.PeriodEnd)},
	})
	p.notify(ctx, event, &types.NotificationRequest{
		Type:      types.NotificationSubscriptionPaused,
		Recipient: snap.Recipient(),
		Language:  snap.Language,
		Payload: map[string]string{
			"name": snap.RecipientName(),
			"tier": snap.Tier.DisplayName(snap.Language),
		},
	})
	return nil
}

func (p *Processor) handleSubscriptionResumed(ctx context.Context, event *stripe.Event) error {
	sub, err := parseSubscription(event)
	if err != nil {
		return err
	}
	snap := p.resolveOrSnapshot(ctx, sub)
	p.deps.Lifecycle.Record(ctx, &lifecyclelog.Entry{
		SubscriptionID: snap.SubscriptionID,
		CustomerID:     snap.CustomerID,
		UserID:         snap.UserIDPtr(),
		EventType:      string(event.Type),
		NewStatus:      lo.ToPtr(string(snap.Status)),
		Metadata:       map[string]any{"next_billing": resolver.FormatDate(snap.PeriodEnd)},
	})
	p.notify(ctx, event, &types.NotificationRequest{
		Type:      types.NotificationSubscriptionResumed,
		Recipient: snap.Recipient(),
		Language:  snap.Language,
		Payload: map[string]string{
			"name":         snap.RecipientName(),
			"tier":         snap.Tier.DisplayName(snap.Language),
			"next_billing": resolver.FormatDate(snap.PeriodEnd),
		},
	})
	return nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	sub, err := parseSubscription(event)
	if err != nil {
		return err
	}
	snap := p.resolveOrSnapshot(ctx, sub)
	accessUntil := snap.PeriodEnd

	p.deps.Lifecycle.Record(ctx, &lifecyclelog.Entry{
		SubscriptionID: snap.SubscriptionID,
		CustomerID:     snap.CustomerID,
		UserID:         snap.UserIDPtr(),
		EventType:      string(event.Type),
		NewStatus:      lo.ToPtr(string(types.SubscriptionStatusCanceled)),
		Metadata:       map[string]any{"access_until": resolver.FormatDate(accessUntil)},
	})

	if err := p.deps.Purchases.CancelBySubscription(ctx, snap.SubscriptionID, accessUntil); err != nil {
		p.log.Errorw("purchase_cancel_failed", "event_id", event.ID, "subscription_id", snap.SubscriptionID, "error", err.Error())
	}

	p.notify(ctx, event, &types.NotificationRequest{
		Type:      types.NotificationSubscriptionCancelled,
		Recipient: snap.Recipient(),
		Language:  snap.Language,
		Payload: map[string]string{
			"name":         snap.RecipientName(),
			"tier":         snap.Tier.DisplayName(snap.Language),
			"access_until": resolver.FormatDate(accessUntil),
		},
	})
	return nil
}

// handleInvoicePaymentSucceeded notifies renewals only. The initial invoice
// is already covered by checkout completion.
func (p *Processor) handleInvoicePaymentSucceeded(ctx context.Context, event *stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}
	if invoice.Subscription == nil {
		p.log.Infow("invoice_without_subscription", "event_id", event.ID)
		return nil
	}
	if invoice.BillingReason != stripe.InvoiceBillingReasonSubscriptionCycle {
		p.log.Infow("invoice_not_renewal", "event_id", event.ID, "billing_reason", string(invoice.BillingReason))
		return nil
	}

	snap, err := p.deps.Resolver.ResolveSubscription(ctx, invoice.Subscription.ID)
	if err != nil {
		return err
	}

	amountPaid := float64(invoice.AmountPaid) / 100
	p.deps.Lifecycle.Record(ctx, &lifecyclelog.Entry{
		SubscriptionID: snap.SubscriptionID,
		CustomerID:     snap.CustomerID,
		UserID:         snap.UserIDPtr(),
		EventType:      string(event.Type),
		NewStatus:      lo.ToPtr(string(snap.Status)),
		Metadata: map[string]any{
			"amount_paid":  amountPaid,
			"currency":     string(invoice.Currency),
			"next_billing": resolver.FormatDate(snap.PeriodEnd),
		},
	})

	p.notify(ctx, event, &types.NotificationRequest{
		Type:      types.NotificationSubscriptionRenewed,
		Recipient: snap.Recipient(),
		Language:  snap.Language,
		Payload: map[string]string{
			"name":         snap.RecipientName(),
			"tier":         snap.Tier.DisplayName(snap.Language),
			"amount":       resolver.FormatAmount(amountPaid, string(invoice.Currency)),
			"next_billing": resolver.FormatDate(snap.PeriodEnd),
		},
	})
	return nil
}

func (p *Processor) handleInvoicePaymentFailed(ctx context.Context, event *stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}

	amountDue := float64(invoice.AmountDue) / 100
	payload := map[string]string{
		"amount_due": resolver.FormatAmount(amountDue, string(invoice.Currency)),
	}
	recipient := invoice.CustomerEmail
	language := ""

	if invoice.Subscription != nil {
		snap, err := p.deps.Resolver.ResolveSubscription(ctx, invoice.Subscription.ID)
		if err != nil {
			p.log.Warnw("payment_failed_resolve_degraded", "event_id", event.ID, "error", err.Error())
		} else {
			recipient = snap.Recipient()
			language = snap.Language
			payload["name"] = snap.RecipientName()
			payload["tier"] = snap.Tier.DisplayName(snap.Language)
			p.deps.Lifecycle.Record(ctx, &lifecyclelog.Entry{
				SubscriptionID: snap.SubscriptionID,
				CustomerID:     snap.CustomerID,
				UserID:         snap.UserIDPtr(),
				EventType:      string(event.Type),
				NewStatus:      lo.ToPtr(string(snap.Status)),
				Metadata: map[string]any{
					"amount_due": amountDue,
					"currency":   string(invoice.Currency),
				},
			})
		}
	}

	p.notify(ctx, event, &types.NotificationRequest{
		Type:      types.NotificationPaymentFailed,
		Recipient: recipient,
		Language:  language,
		Payload:   payload,
	})
	return nil
}

func parseSubscription(event *stripe.Event) (*stripe.Subscription, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse subscription: %w", err)
	}
	return &sub, nil
}

// resolveOrSnapshot prefers the authoritative re-fetch; when the provider is
// unreachable it degrades to the event payload so state tracking continues.
func (p *Processor) resolveOrSnapshot(ctx context.Context, sub *stripe.Subscription) *resolver.SubscriptionSnapshot {
	snap, err := p.deps.Resolver.ResolveSubscription(ctx, sub.ID)
	if err != nil {
		p.log.Warnw("resolve_degraded_to_payload", "subscription_id", sub.ID, "error", err.Error())
		return p.deps.Resolver.Snapshot(ctx, sub)
	}
	return snap
}
