package resolver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	cfgpkg "github.com/studyflow/billing/pkg/config"
	"github.com/studyflow/billing/pkg/types"
)

type stubStripe struct {
	sub        *stripe.Subscription
	subErr     error
	price      *stripe.Price
	priceErr   error
	product    *stripe.Product
	productErr error
	customer   *stripe.Customer
	custErr    error
}

func (s *stubStripe) Subscription(context.Context, string) (*stripe.Subscription, error) {
	return s.sub, s.subErr
}
func (s *stubStripe) Price(context.Context, string) (*stripe.Price, error) {
	return s.price, s.priceErr
}
func (s *stubStripe) Product(context.Context, string) (*stripe.Product, error) {
	return s.product, s.productErr
}
func (s *stubStripe) Customer(context.Context, string) (*stripe.Customer, error) {
	return s.customer, s.custErr
}

func testConfig() *cfgpkg.Config {
	return &cfgpkg.Config{
		DefaultLanguage: types.LanguageDefault,
		Tiers: []*types.Tier{
			{ProductID: "prod_premium", Name: "Premium", NameLocalized: "Преміум"},
		},
	}
}

func baseSubscription(periodEnd time.Time) *stripe.Subscription {
	return &stripe.Subscription{
		ID:                 "sub_123",
		Status:             stripe.SubscriptionStatusActive,
		CurrentPeriodStart: periodEnd.Add(-30 * 24 * time.Hour).Unix(),
		CurrentPeriodEnd:   periodEnd.Unix(),
		Customer:           &stripe.Customer{ID: "cus_1"},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{ID: "price_1"}},
			},
		},
	}
}

func newTestService(sc *stubStripe) *Service {
	// The db is only touched when a customer email resolves; these cases
	// keep the email empty.
	return NewService(testConfig(), sc, nil, zap.NewNop().Sugar())
}

func TestResolve_AmountsDeriveFromMinorUnits(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	sc := &stubStripe{
		sub: baseSubscription(periodEnd),
		price: &stripe.Price{
			ID:         "price_1",
			UnitAmount: 1999,
			Currency:   stripe.CurrencyUSD,
			Recurring:  &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth},
			Product:    &stripe.Product{ID: "prod_premium"},
		},
		custErr: fmt.Errorf("not found"),
	}

	snap, err := newTestService(sc).ResolveSubscription(context.Background(), "sub_123")
	require.NoError(t, err)
	require.InDelta(t, 19.99, snap.Amount, 0.001)
	require.Equal(t, "usd", snap.Currency)
	require.Equal(t, "month", snap.Interval)
	require.Equal(t, "Premium", snap.Tier.Name)
	require.Equal(t, periodEnd.Unix(), snap.PeriodEnd.Unix())
}

func TestResolve_UnknownProductFallsBackToProductName(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	sc := &stubStripe{
		sub: baseSubscription(periodEnd),
		price: &stripe.Price{
			ID:         "price_1",
			UnitAmount: 999,
			Currency:   stripe.CurrencyUSD,
			Product:    &stripe.Product{ID: "prod_brand_new"},
		},
		product: &stripe.Product{ID: "prod_brand_new", Name: "Mentorship Plus"},
		custErr: fmt.Errorf("not found"),
	}

	snap, err := newTestService(sc).ResolveSubscription(context.Background(), "sub_123")
	require.NoError(t, err)
	require.Equal(t, "Mentorship Plus", snap.Tier.Name)
}

func TestResolve_MissingPriceDegradesToDefaultTier(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	sc := &stubStripe{
		sub:      baseSubscription(periodEnd),
		priceErr: fmt.Errorf("no such price"),
		custErr:  fmt.Errorf("not found"),
	}

	snap, err := newTestService(sc).ResolveSubscription(context.Background(), "sub_123")
	require.NoError(t, err)
	require.Equal(t, types.DefaultTier().Name, snap.Tier.Name)
	require.Zero(t, snap.Amount)
}

func TestResolve_DiscountTerms(t *testing.T) {
	periodEnd := time.Now().Add(30 * 24 * time.Hour)
	sub := baseSubscription(periodEnd)
	sub.Discount = &stripe.Discount{
		Coupon: &stripe.Coupon{
			AmountOff: 500,
			Currency:  stripe.CurrencyUSD,
			Duration:  stripe.CouponDurationForever,
		},
	}
	sc := &stubStripe{sub: sub, priceErr: fmt.Errorf("skip"), custErr: fmt.Errorf("skip")}

	snap, err := newTestService(sc).ResolveSubscription(context.Background(), "sub_123")
	require.NoError(t, err)
	require.NotNil(t, snap.Discount)
	require.InDelta(t, 5.0, snap.Discount.AmountOff, 0.001)
	require.Equal(t, types.DiscountDurationForever, snap.Discount.Duration)
	require.Equal(t, "5.00 USD off forever", snap.DiscountDisplay())
}

func TestResolve_SubscriptionFetchFailureIsAnError(t *testing.T) {
	sc := &stubStripe{subErr: fmt.Errorf("stripe down")}
	_, err := newTestService(sc).ResolveSubscription(context.Background(), "sub_123")
	require.Error(t, err)
}
