package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/lumahq/luma/internal/application/billing/usecases"
	"github.com/lumahq/luma/internal/domain/subscription"
	"github.com/lumahq/luma/internal/shared/config"
	"github.com/lumahq/luma/internal/shared/logger"
	"github.com/lumahq/luma/internal/shared/utils"
)

// maxWebhookBody bounds the request body read for signature verification.
const maxWebhookBody = 65536

// metadataSubscriptionSID is set on gateway subscriptions at creation so
// webhook events can be routed back to the owning aggregate.
const metadataSubscriptionSID = "subscription_sid"

// StripeWebhookHandler receives gateway events. Only invoice.payment_failed
// feeds the lifecycle engine; everything else is acknowledged and dropped.
type StripeWebhookHandler struct {
	webhookSecret        string
	subscriptionRepo     subscription.SubscriptionRepository
	handlePaymentFailure *usecases.HandlePaymentFailureUseCase
	logger               logger.Interface
}

func NewStripeWebhookHandler(
	cfg *config.StripeConfig,
	subscriptionRepo subscription.SubscriptionRepository,
	handlePaymentFailure *usecases.HandlePaymentFailureUseCase,
	logger logger.Interface,
) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		webhookSecret:        cfg.WebhookSecret,
		subscriptionRepo:     subscriptionRepo,
		handlePaymentFailure: handlePaymentFailure,
		logger:               logger,
	}
}

// HandleWebhook verifies the event signature and dispatches by event type.
// Processing errors return 500 so the gateway redelivers; unroutable events
// return 200 to stop redelivery of mail we can never handle.
func (h *StripeWebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warnw("webhook signature verification failed", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid signature")
		return
	}

	switch event.Type {
	case "invoice.payment_failed":
		h.handleInvoicePaymentFailed(c, event)
	default:
		h.logger.Debugw("ignoring webhook event", "type", event.Type, "event_id", event.ID)
		c.Status(http.StatusOK)
	}
}

func (h *StripeWebhookHandler) handleInvoicePaymentFailed(c *gin.Context, event stripe.Event) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		h.logger.Errorw("failed to decode invoice event", "event_id", event.ID, "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "malformed event payload")
		return
	}

	sid := inv.Metadata[metadataSubscriptionSID]
	if sid == "" {
		h.logger.Warnw("payment failed event without subscription metadata",
			"event_id", event.ID,
			"invoice_id", inv.ID,
		)
		c.Status(http.StatusOK)
		return
	}

	sub, err := h.subscriptionRepo.GetBySID(c.Request.Context(), sid)
	if err != nil {
		h.logger.Errorw("failed to resolve subscription for webhook",
			"sid", sid,
			"invoice_id", inv.ID,
			"error", err,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	reason := "payment declined"
	code := ""
	if inv.LastFinalizationError != nil {
		reason = inv.LastFinalizationError.Msg
		code = string(inv.LastFinalizationError.Code)
	}

	result, err := h.handlePaymentFailure.Execute(c.Request.Context(), usecases.HandlePaymentFailureCommand{
		SubscriptionID: sub.ID(),
		InvoiceID:      inv.ID,
		Reason:         reason,
		Code:           code,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"failure_id":    result.FailureID,
		"next_retry_at": result.NextRetryAt,
		"already_open":  result.AlreadyOpen,
	})
}
