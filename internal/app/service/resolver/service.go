package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studyflow/billing/internal/models"
	"github.com/studyflow/billing/internal/platform/stripeapi"
	cfgpkg "github.com/studyflow/billing/pkg/config"
	"github.com/studyflow/billing/pkg/logctx"
	"github.com/studyflow/billing/pkg/types"
)

// Service reconstructs current tier, pricing, discount and billing-period
// facts from the provider's authoritative objects. Money-relevant fields are
// never taken from webhook payloads verbatim.
type Service struct {
	cfg    *cfgpkg.Config
	stripe stripeapi.Client
	db     *gorm.DB
	log    *zap.SugaredLogger
}

func NewService(cfg *cfgpkg.Config, sc stripeapi.Client, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, stripe: sc, db: db, log: log}
}

// ResolveSubscription fetches the subscription and builds a snapshot.
// Only the subscription fetch itself can fail; every downstream lookup
// (price, product, customer, local user) degrades instead of aborting.
func (s *Service) ResolveSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	sub, err := s.stripe.Subscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscription: %w", err)
	}
	return s.Snapshot(ctx, sub), nil
}

// Snapshot builds a snapshot from an already-fetched subscription object.
func (s *Service) Snapshot(ctx context.Context, sub *stripe.Subscription) *SubscriptionSnapshot {
	snap := &SubscriptionSnapshot{
		SubscriptionID:    sub.ID,
		Status:            types.SubscriptionStatus(sub.Status),
		PeriodStart:       time.Unix(sub.CurrentPeriodStart, 0),
		PeriodEnd:         time.Unix(sub.CurrentPeriodEnd, 0),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Tier:              types.DefaultTier(),
		Language:          s.cfg.DefaultLanguage,
	}
	if sub.Customer != nil {
		snap.CustomerID = sub.Customer.ID
	}

	s.resolvePricing(ctx, sub, snap)
	s.resolveDiscount(sub, snap)
	s.resolveCustomer(ctx, snap)
	s.resolveUser(ctx, snap)

	return snap
}

func (s *Service) resolvePricing(ctx context.Context, sub *stripe.Subscription, snap *SubscriptionSnapshot) {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		logctx.FromCtx(ctx, s.log).Warnw("subscription_has_no_price", "subscription_id", sub.ID)
		return
	}
	priceID := sub.Items.Data[0].Price.ID

	price, err := s.stripe.Price(ctx, priceID)
	if err != nil {
		// Degrade to the default tier; notification delivery must not break
		// on a missing price.
		logctx.FromCtx(ctx, s.log).Warnw("price_lookup_degraded", "price_id", priceID, "error", err.Error())
		return
	}
	snap.PriceID = price.ID
	snap.Amount = float64(price.UnitAmount) / 100
	snap.Currency = string(price.Currency)
	if price.Recurring != nil {
		snap.Interval = string(price.Recurring.Interval)
	}
	if price.Product == nil {
		return
	}
	snap.ProductID = price.Product.ID

	if tier := s.cfg.GetTierByProductID(snap.ProductID); tier != nil {
		snap.Tier = tier
		return
	}
	// Unknown product: try the product name before settling on the default
	// record, so freshly added pricing tiers still show something sensible.
	product, err := s.stripe.Product(ctx, snap.ProductID)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("product_lookup_degraded", "product_id", snap.ProductID, "error", err.Error())
		return
	}
	if product.Name != "" {
		fallback := types.DefaultTier()
		fallback.ProductID = product.ID
		fallback.Name = product.Name
		fallback.NameLocalized = product.Name
		snap.Tier = fallback
	}
}

func (s *Service) resolveDiscount(sub *stripe.Subscription, snap *SubscriptionSnapshot) {
	if sub.Discount == nil || sub.Discount.Coupon == nil {
		return
	}
	coupon := sub.Discount.Coupon
	snap.Discount = &types.Discount{
		PercentOff:       coupon.PercentOff,
		AmountOff:        float64(coupon.AmountOff) / 100,
		Currency:         string(coupon.Currency),
		Duration:         types.DiscountDuration(coupon.Duration),
		DurationInMonths: coupon.DurationInMonths,
	}
}

func (s *Service) resolveCustomer(ctx context.Context, snap *SubscriptionSnapshot) {
	if snap.CustomerID == "" {
		return
	}
	cus, err := s.stripe.Customer(ctx, snap.CustomerID)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("customer_lookup_degraded", "customer_id", snap.CustomerID, "error", err.Error())
		return
	}
	snap.CustomerEmail = cus.Email
	snap.CustomerName = cus.Name
}

func (s *Service) resolveUser(ctx context.Context, snap *SubscriptionSnapshot) {
	if snap.CustomerEmail == "" {
		return
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", snap.CustomerEmail).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logctx.FromCtx(ctx, s.log).Warnw("user_lookup_degraded", "email", snap.CustomerEmail, "error", err.Error())
		}
		return
	}
	snap.User = &user
	if user.Language != "" {
		snap.Language = user.Language
	}
}
