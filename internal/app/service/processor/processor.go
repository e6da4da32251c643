package processor

import (
	"context"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/studyflow/billing/internal/app/service/lifecyclelog"
	"github.com/studyflow/billing/internal/app/service/resolver"
	"github.com/studyflow/billing/internal/platform/notifier"
	"github.com/studyflow/billing/pkg/metrics"
	"github.com/studyflow/billing/pkg/types"
)

// Ledger is the idempotency ledger contract the processor needs.
type Ledger interface {
	HasProcessed(ctx context.Context, eventID string) bool
	MarkProcessed(ctx context.Context, eventID, eventType string) error
}

// LifecycleLogger appends subscription state transitions.
type LifecycleLogger interface {
	Record(ctx context.Context, e *lifecyclelog.Entry)
}

// PurchaseStore is the purchase-record write path.
type PurchaseStore interface {
	Activate(ctx context.Context, userID, productID, subscriptionID string) error
	CancelBySubscription(ctx context.Context, subscriptionID string, accessUntil time.Time) error
}

// Resolver reconstructs authoritative subscription state.
type Resolver interface {
	ResolveSubscription(ctx context.Context, subscriptionID string) (*resolver.SubscriptionSnapshot, error)
	Snapshot(ctx context.Context, sub *stripe.Subscription) *resolver.SubscriptionSnapshot
}

// Deps are the processor's collaborators.
type Deps struct {
	Ledger     Ledger
	Lifecycle  LifecycleLogger
	Purchases  PurchaseStore
	Resolver   Resolver
	Dispatcher notifier.Dispatcher
}

// Processor routes verified webhook events to per-type handlers. Work runs
// detached from the HTTP response; correctness under provider redelivery
// comes from the ledger, not from making the caller wait.
type Processor struct {
	deps Deps
	log  *zap.SugaredLogger
	wg   sync.WaitGroup
}

func New(deps Deps, log *zap.SugaredLogger) *Processor {
	return &Processor{deps: deps, log: log}
}

// ProcessAsync starts detached processing for a verified event. Errors and
// panics are contained here: the acknowledgment has already been sent and
// there is no receiver to surface them to.
func (p *Processor) ProcessAsync(event *stripe.Event) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.log.Errorw("webhook_processing_panic", "event_id", event.ID, "type", string(event.Type), "panic", r)
				metrics.WebhookEvents.WithLabelValues(string(event.Type), "failed").Inc()
			}
		}()
		// The request context ends with the response; detached work gets its own.
		if err := p.Process(context.Background(), event); err != nil {
			p.log.Errorw("webhook_processing_failed", "event_id", event.ID, "type", string(event.Type), "error", err.Error())
		}
	}()
}

// Wait blocks until in-flight detached work drains or the context expires.
func (p *Processor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Process runs the full per-event pipeline: ledger check, ledger mark,
// route. Steps are sequential because each depends on the previous one.
func (p *Processor) Process(ctx context.Context, event *stripe.Event) error {
	metrics.WebhookEvents.WithLabelValues(string(event.Type), "received").Inc()

	if p.deps.Ledger.HasProcessed(ctx, event.ID) {
		p.log.Infow("event_already_processed", "event_id", event.ID, "type", string(event.Type))
		metrics.WebhookEvents.WithLabelValues(string(event.Type), "duplicate").Inc()
		return nil
	}

	// Mark before any externally visible side effect. A mark failure means
	// the ledger is unreachable; processing proceeds regardless and a
	// provider redelivery covers us once the ledger recovers.
	if err := p.deps.Ledger.MarkProcessed(ctx, event.ID, string(event.Type)); err != nil {
		p.log.Warnw("ledger_mark_failed", "event_id", event.ID, "error", err.Error())
	}

	handled, err := p.route(ctx, event)
	switch {
	case err != nil:
		metrics.WebhookEvents.WithLabelValues(string(event.Type), "failed").Inc()
		return err
	case handled:
		metrics.WebhookEvents.WithLabelValues(string(event.Type), "processed").Inc()
	default:
		metrics.WebhookEvents.WithLabelValues(string(event.Type), "ignored").Inc()
	}
	return nil
}

// route dispatches on the provider's event type tag. Unknown types are
// logged and dropped: new provider event types must never crash processing.
func (p *Processor) route(ctx context.Context, event *stripe.Event) (bool, error) {
	switch event.Type {
	case "checkout.session.completed":
		return true, p.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created":
		return true, p.handleSubscriptionCreated(ctx, event)
	case "customer.subscription.updated":
		return true, p.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.paused":
		return true, p.handleSubscriptionPaused(ctx, event)
	case "customer.subscription.resumed":
		return true, p.handleSubscriptionResumed(ctx, event)
	case "customer.subscription.deleted":
		return true, p.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		return true, p.handleInvoicePaymentSucceeded(ctx, event)
	case "invoice.payment_failed":
		return true, p.handleInvoicePaymentFailed(ctx, event)
	default:
		p.log.Infow("unhandled_event_type", "event_id", event.ID, "type", string(event.Type))
		return false, nil
	}
}

// notify dispatches a notification. Delivery failures are logged and never
// roll back ledger marks or log entries already written for this event.
func (p *Processor) notify(ctx context.Context, event *stripe.Event, req *types.NotificationRequest) {
	if req.Recipient == "" {
		p.log.Warnw("notification_skipped_no_recipient", "event_id", event.ID, "notification", string(req.Type))
		return
	}
	if err := p.deps.Dispatcher.Send(ctx, req); err != nil {
		p.log.Errorw("notification_delivery_failed",
			"event_id", event.ID,
			"notification", string(req.Type),
			"recipient", req.Recipient,
			"error", err.Error(),
		)
	}
}
