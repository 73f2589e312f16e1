package handlers

import (
	"io"
	"net/http"

	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/models"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/repository"
	"github.com/jkambo1986-collab/notce-ai-tutor-2026-blueprint/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentsHandler struct {
	log *zap.Logger
	svc *services.PaymentService
}

func NewPaymentsHandler(log *zap.Logger, svc *services.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{log: log, svc: svc}
}

type checkoutRequest struct {
	Tier       string `json:"tier" binding:"required"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

func (h *PaymentsHandler) Checkout(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier is required"})
		return
	}

	result, err := h.svc.CreateCheckout(c.Request.Context(), user, req.Tier, req.SuccessURL, req.CancelURL)
	if err != nil {
		h.log.Error("Checkout failed", zap.Uint("userID", user.ID), zap.String("tier", req.Tier), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Webhook receives Stripe events. The raw body must be read unmodified for
// signature verification, so this route bypasses JSON binding entirely.
func (h *PaymentsHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 65536))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read payload"})
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		h.log.Warn("Webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// Sync re-checks Stripe for a paid session the webhook may have missed.
// Safe to call repeatedly; fulfillment is idempotent.
func (h *PaymentsHandler) Sync(c *gin.Context) {
	user := c.MustGet("user").(*models.User)

	updated, err := h.svc.SyncPayment(c.Request.Context(), user)
	if err != nil {
		h.log.Error("Payment sync failed", zap.Uint("userID", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
		return
	}

	profile, err := repository.GetProfileByUserID(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updated": updated,
		"is_paid": profile.IsPaid,
		"tier":    profile.SubscriptionTier,
	})
}
