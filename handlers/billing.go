package handlers

import (
	"net/http"

	"github.com/DebasishBarai/remind-me/config"
	"github.com/DebasishBarai/remind-me/services"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	payments *services.PaymentService
	features config.Features
}

func NewPaymentHandler(payments *services.PaymentService, features config.Features) *PaymentHandler {
	return &PaymentHandler{payments: payments, features: features}
}

type createOrderRequest struct {
	Plan  string `json:"plan"`
	Cycle string `json:"cycle"`
}

type captureOrderRequest struct {
	OrderID string `json:"orderID"`
	Plan    string `json:"plan"`
}

func (h *PaymentHandler) enabled(c *gin.Context) bool {
	if !h.features.BillingEnabled || h.payments == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Billing not enabled"})
		return false
	}
	return true
}

// Create opens a PayPal order and returns it to the client for approval.
func (h *PaymentHandler) Create(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	order, err := h.payments.Create(c.Request.Context(), userID, req.Plan, req.Cycle)
	if err != nil {
		respondError(c, err, "Payment initialization failed")
		return
	}
	c.JSON(http.StatusOK, order)
}

// Capture finalizes an approved order and upgrades the caller.
func (h *PaymentHandler) Capture(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req captureOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := h.payments.Capture(c.Request.Context(), userID, req.OrderID, req.Plan); err != nil {
		respondError(c, err, "Payment verification failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PaymentHandler) Plans(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"currency": h.payments.Currency(),
		"plans":    h.payments.Prices(),
	})
}
