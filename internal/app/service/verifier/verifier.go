package verifier

import (
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	cfgpkg "github.com/studyflow/billing/pkg/config"
)

var (
	// ErrMissingSecret means the signing secret is not configured. Kept
	// distinct from a forged signature, but both map to 4xx so the provider
	// does not endlessly retry a condition that will never succeed.
	ErrMissingSecret    = errors.New("webhook signing secret is not configured")
	ErrMissingSignature = errors.New("signature header is missing")
	ErrInvalidSignature = errors.New("signature verification failed")
)

// Service validates that an inbound request genuinely originated from the
// payment provider. Pure validation, no side effects.
type Service struct {
	secret    string
	tolerance time.Duration
}

func New(cfg *cfgpkg.Config) *Service {
	tolerance := time.Duration(cfg.Stripe.SignatureToleranceSeconds) * time.Second
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Service{secret: cfg.Stripe.WebhookSecret, tolerance: tolerance}
}

// Verify checks the signature header against the raw body and returns the
// decoded event. The tolerance window rejects replayed-but-old signed bodies.
// API version mismatches are ignored: verification is about authenticity,
// and rejecting a genuinely signed event over a version tag would make the
// provider retry a condition that can never succeed.
func (s *Service) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	if s.secret == "" {
		return stripe.Event{}, ErrMissingSecret
	}
	if sigHeader == "" {
		return stripe.Event{}, ErrMissingSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.secret, webhook.ConstructEventOptions{
		Tolerance:                s.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}
