// Package handlers holds the gin handlers for the billing lifecycle API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumahq/luma/internal/application/billing/usecases"
	"github.com/lumahq/luma/internal/domain/subscription"
	"github.com/lumahq/luma/internal/shared/logger"
	"github.com/lumahq/luma/internal/shared/utils"
)

// BillingHandler exposes the subscription lifecycle operations: cancellation
// save flow, retention offers, and reactivation.
type BillingHandler struct {
	getUseCase       *usecases.GetSubscriptionUseCase
	requestCancelUC  *usecases.RequestCancellationUseCase
	acceptOfferUC    *usecases.AcceptRetentionOfferUseCase
	finalizeUC       *usecases.FinalizeCancellationUseCase
	reactivateUC     *usecases.ReactivateSubscriptionUseCase
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	logger           logger.Interface
}

func NewBillingHandler(
	getUC *usecases.GetSubscriptionUseCase,
	requestCancelUC *usecases.RequestCancellationUseCase,
	acceptOfferUC *usecases.AcceptRetentionOfferUseCase,
	finalizeUC *usecases.FinalizeCancellationUseCase,
	reactivateUC *usecases.ReactivateSubscriptionUseCase,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	logger logger.Interface,
) *BillingHandler {
	return &BillingHandler{
		getUseCase:       getUC,
		requestCancelUC:  requestCancelUC,
		acceptOfferUC:    acceptOfferUC,
		finalizeUC:       finalizeUC,
		reactivateUC:     reactivateUC,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		logger:           logger,
	}
}

// RequestCancellationRequest starts the save flow.
type RequestCancellationRequest struct {
	Reason   string `json:"reason" binding:"required"`
	Feedback string `json:"feedback"`
}

// AcceptOfferRequest accepts one presented retention offer by type.
type AcceptOfferRequest struct {
	OfferType string `json:"offer_type" binding:"required"`
}

// FinalizeCancellationRequest declines the offers and confirms cancellation.
type FinalizeCancellationRequest struct {
	Reason      string `json:"reason"`
	Feedback    string `json:"feedback"`
	AtPeriodEnd bool   `json:"at_period_end"`
}

// ReactivateRequest brings a suspended or cancelled subscription back,
// optionally onto a different plan.
type ReactivateRequest struct {
	PlanCode string `json:"plan_code"`
}

// GetSubscription returns the lifecycle view for one subscription.
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	view, err := h.getUseCase.Execute(c.Request.Context(), usecases.GetSubscriptionCommand{
		SID: c.Param("sid"),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}

// RequestCancellation opens a retention attempt and returns the offers.
func (h *BillingHandler) RequestCancellation(c *gin.Context) {
	var req RequestCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid cancellation request body", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.subscriptionRepo.GetBySID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.requestCancelUC.Execute(c.Request.Context(), usecases.RequestCancellationCommand{
		SubscriptionID: sub.ID(),
		Reason:         req.Reason,
		Feedback:       req.Feedback,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "cancellation requested", gin.H{
		"attempt_id": result.AttemptID,
		"reason":     result.Reason,
		"offers":     result.Offers,
	})
}

// AcceptOffer applies one of the presented retention offers.
func (h *BillingHandler) AcceptOffer(c *gin.Context) {
	var req AcceptOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid accept offer body", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.subscriptionRepo.GetBySID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.acceptOfferUC.Execute(c.Request.Context(), usecases.AcceptRetentionOfferCommand{
		SubscriptionID: sub.ID(),
		OfferType:      req.OfferType,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "offer accepted", gin.H{
		"offer":       result.Offer,
		"reactivated": result.Reactivated,
	})
}

// FinalizeCancellation confirms the cancellation after the save flow.
func (h *BillingHandler) FinalizeCancellation(c *gin.Context) {
	var req FinalizeCancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid finalize cancellation body", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.subscriptionRepo.GetBySID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.finalizeUC.Execute(c.Request.Context(), usecases.FinalizeCancellationCommand{
		SubscriptionID: sub.ID(),
		Reason:         req.Reason,
		Feedback:       req.Feedback,
		AtPeriodEnd:    req.AtPeriodEnd,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "subscription cancelled", gin.H{
		"already_cancelled": result.AlreadyCancelled,
		"effective_at":      result.EffectiveAt,
	})
}

// Reactivate brings a suspended or cancelled subscription back to active.
func (h *BillingHandler) Reactivate(c *gin.Context) {
	var req ReactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.logger.Warnw("invalid reactivate body", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.subscriptionRepo.GetBySID(c.Request.Context(), c.Param("sid"))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	cmd := usecases.ReactivateSubscriptionCommand{SubscriptionID: sub.ID()}
	if req.PlanCode != "" {
		plan, err := h.planRepo.GetByCode(c.Request.Context(), req.PlanCode)
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}
		cmd.PlanID = plan.ID()
	}

	result, err := h.reactivateUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "subscription reactivated", gin.H{
		"already_active":   result.AlreadyActive,
		"new_period_start": result.NewPeriodStart,
		"new_period_end":   result.NewPeriodEnd,
	})
}
