package stripeapi

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/fx"

	cfgpkg "github.com/studyflow/billing/pkg/config"
)

// Client is the read model over the payment provider. Webhook processing
// re-fetches authoritative objects through it instead of trusting payload
// fields, which can be stale relative to rapid successive updates.
type Client interface {
	Subscription(ctx context.Context, id string) (*stripe.Subscription, error)
	Price(ctx context.Context, id string) (*stripe.Price, error)
	Product(ctx context.Context, id string) (*stripe.Product, error)
	Customer(ctx context.Context, id string) (*stripe.Customer, error)
}

type apiClient struct {
	sc *client.API
}

func NewClient(cfg *cfgpkg.Config) Client {
	sc := &client.API{}
	sc.Init(cfg.Stripe.APIKey, nil)
	return &apiClient{sc: sc}
}

func (c *apiClient) Subscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := c.sc.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscription %s: %w", id, err)
	}
	return sub, nil
}

func (c *apiClient) Price(ctx context.Context, id string) (*stripe.Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	price, err := c.sc.Prices.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price %s: %w", id, err)
	}
	return price, nil
}

func (c *apiClient) Product(ctx context.Context, id string) (*stripe.Product, error) {
	params := &stripe.ProductParams{}
	params.Context = ctx
	product, err := c.sc.Products.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return product, nil
}

func (c *apiClient) Customer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	cus, err := c.sc.Customers.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer %s: %w", id, err)
	}
	return cus, nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
