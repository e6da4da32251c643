package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/studyflow/billing/internal/app/service/processor"
	"github.com/studyflow/billing/internal/app/service/verifier"
	"github.com/studyflow/billing/pkg/logctx"
	"github.com/studyflow/billing/pkg/response"
)

const webhookBodyLimit = 1 << 20 // 1MiB

// @Summary      Stripe Webhook
// @Description  Receives Stripe webhook events. Verifies the signature synchronously, acknowledges immediately, and continues processing detached from the response.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "Stripe event JSON, signed via the Stripe-Signature header"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  response.APIResponse[string]
// @Router       /api/v1/payment/webhook/stripe [post]
// ApiStripeWebhook is the acknowledgment gate. Only signature verification
// happens before the response: the provider's response-time budget is hard,
// so everything else runs detached and redelivery safety comes from the
// idempotency ledger.
func ApiStripeWebhook(v *verifier.Service, proc *processor.Processor, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit)
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logctx.FromGin(c, log).Warnw("webhook_body_read_failed", "error", err.Error())
			c.JSON(http.StatusBadRequest, response.ErrorT(response.APIResponseCodeBadRequest, "failed to read body"))
			return
		}

		event, err := v.Verify(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			// 4xx for both forged signatures and missing configuration:
			// neither will succeed on a provider retry.
			logctx.FromGin(c, log).Warnw("webhook_signature_rejected", "error", err.Error())
			c.JSON(http.StatusBadRequest, response.ErrorT(response.APIResponseCodeBadRequest, "invalid signature"))
			return
		}

		logctx.FromGin(c, log).Infow("webhook_received", "event_id", event.ID, "type", string(event.Type))
		proc.ProcessAsync(&event)

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, v *verifier.Service, proc *processor.Processor, log *zap.SugaredLogger) {
	r.POST("/stripe", ApiStripeWebhook(v, proc, log))
}
