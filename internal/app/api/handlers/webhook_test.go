package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/studyflow/billing/internal/app/service/lifecyclelog"
	"github.com/studyflow/billing/internal/app/service/processor"
	"github.com/studyflow/billing/internal/app/service/resolver"
	"github.com/studyflow/billing/internal/app/service/verifier"
	cfgpkg "github.com/studyflow/billing/pkg/config"
	"github.com/studyflow/billing/pkg/types"
)

const testSecret = "whsec_gate_test"

type recordingLedger struct {
	seen  map[string]bool
	marks []string
}

func (r *recordingLedger) HasProcessed(_ context.Context, eventID string) bool {
	return r.seen[eventID]
}

func (r *recordingLedger) MarkProcessed(_ context.Context, eventID, _ string) error {
	r.marks = append(r.marks, eventID)
	r.seen[eventID] = true
	return nil
}

type noopLifecycle struct{}

func (noopLifecycle) Record(context.Context, *lifecyclelog.Entry) {}

type noopPurchases struct{}

func (noopPurchases) Activate(context.Context, string, string, string) error { return nil }
func (noopPurchases) CancelBySubscription(context.Context, string, time.Time) error {
	return nil
}

type recordingDispatcher struct {
	sent []*types.NotificationRequest
}

func (r *recordingDispatcher) Send(_ context.Context, req *types.NotificationRequest) error {
	r.sent = append(r.sent, req)
	return nil
}

type staticResolver struct{}

func (staticResolver) ResolveSubscription(context.Context, string) (*resolver.SubscriptionSnapshot, error) {
	return &resolver.SubscriptionSnapshot{
		SubscriptionID: "sub_123",
		Status:         types.SubscriptionStatusPaused,
		PeriodEnd:      time.Now().Add(24 * time.Hour),
		CustomerEmail:  "a@x.com",
		Tier:           types.DefaultTier(),
		Language:       types.LanguageDefault,
	}, nil
}

func (s staticResolver) Snapshot(ctx context.Context, _ *stripe.Subscription) *resolver.SubscriptionSnapshot {
	snap, _ := s.ResolveSubscription(ctx, "")
	return snap
}

type gateFixture struct {
	router *gin.Engine
	proc   *processor.Processor
	ledger *recordingLedger
	sent   *recordingDispatcher
}

func newGateFixture() *gateFixture {
	gin.SetMode(gin.TestMode)
	f := &gateFixture{
		ledger: &recordingLedger{seen: map[string]bool{}},
		sent:   &recordingDispatcher{},
	}
	log := zap.NewNop().Sugar()
	f.proc = processor.New(processor.Deps{
		Ledger:     f.ledger,
		Lifecycle:  noopLifecycle{},
		Purchases:  noopPurchases{},
		Resolver:   staticResolver{},
		Dispatcher: f.sent,
	}, log)
	v := verifier.New(&cfgpkg.Config{Stripe: cfgpkg.StripeConfig{WebhookSecret: testSecret}})

	r := gin.New()
	r.POST("/api/v1/payment/webhook/stripe", ApiStripeWebhook(v, f.proc, log))
	f.router = r
	return f
}

func sign(payload []byte, secret string) string {
	now := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", now, payload)
	return fmt.Sprintf("t=%d,v1=%s", now, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(f *gateFixture, body []byte, sigHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook/stripe", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sigHeader != "" {
		req.Header.Set("Stripe-Signature", sigHeader)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func pausedEventBody(eventID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":"customer.subscription.paused","data":{"object":{"id":"sub_123","status":"paused","customer":{"id":"cus_1"}}}}`,
		eventID))
}

func TestWebhook_ValidSignatureAcksAndProcesses(t *testing.T) {
	f := newGateFixture()
	body := pausedEventBody("evt_ok")

	w := postWebhook(f, body, sign(body, testSecret))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"received": true}`, w.Body.String())

	// Processing is detached from the response; drain before asserting.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.proc.Wait(ctx))
	require.Equal(t, []string{"evt_ok"}, f.ledger.marks)
	require.Len(t, f.sent.sent, 1)
}

func TestWebhook_MissingSignatureRejectedBeforeProcessing(t *testing.T) {
	f := newGateFixture()

	w := postWebhook(f, pausedEventBody("evt_nosig"), "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.proc.Wait(ctx))
	require.Empty(t, f.ledger.marks, "an unverified request must never reach the ledger")
	require.Empty(t, f.sent.sent)
}

func TestWebhook_ForgedSignatureRejected(t *testing.T) {
	f := newGateFixture()
	body := pausedEventBody("evt_forged")

	w := postWebhook(f, body, sign(body, "whsec_other"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, f.ledger.marks)
}

func TestWebhook_MissingSecretIsConfigError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zap.NewNop().Sugar()
	v := verifier.New(&cfgpkg.Config{})
	f := newGateFixture()

	r := gin.New()
	r.POST("/api/v1/payment/webhook/stripe", ApiStripeWebhook(v, f.proc, log))
	f.router = r

	body := pausedEventBody("evt_noconf")
	w := postWebhook(f, body, sign(body, testSecret))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhook_RedeliverySendsAtMostOneNotification(t *testing.T) {
	f := newGateFixture()
	body := pausedEventBody("evt_redelivered")
	header := sign(body, testSecret)

	require.Equal(t, http.StatusOK, postWebhook(f, body, header).Code)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.proc.Wait(ctx))

	// Same raw signed body again, simulating provider redelivery.
	require.Equal(t, http.StatusOK, postWebhook(f, body, header).Code)
	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	require.NoError(t, f.proc.Wait(ctx2))

	require.Equal(t, []string{"evt_redelivered"}, f.ledger.marks)
	require.Len(t, f.sent.sent, 1)
}
