package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	paymentsvc "stayhub/internal/app/services/payments"
	domainbooking "stayhub/internal/domain/booking"
	domainpayments "stayhub/internal/domain/payments"
	"stayhub/internal/domain/shared/money"
	domainuser "stayhub/internal/domain/user"
)

type PaymentHTTP interface {
	Initiate(c *gin.Context)
	Status(c *gin.Context)
	Webhook(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
}

type PaymentHandler struct {
	Service *paymentsvc.Service
	// PublicBaseURL is the externally reachable origin used to build the
	// webhook callback handed to the gateway.
	PublicBaseURL string
	Currency      string
	Logger        *slog.Logger
}

type initiatePaymentRequest struct {
	Amount    string `json:"amount"`
	Method    string `json:"method"`
	ReturnURL string `json:"return_url"`
}

func (h PaymentHandler) Initiate(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req initiatePaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	params := paymentsvc.InitiateParams{
		BookingID:   domainbooking.BookingID(c.Param("id")),
		UserID:      domainuser.ID(p.ID),
		Method:      req.Method,
		CallbackURL: strings.TrimRight(h.PublicBaseURL, "/") + "/api/v1/payments/webhook",
		ReturnURL:   req.ReturnURL,
	}
	if req.Amount != "" {
		m, err := money.ParseDecimal(req.Amount, h.currency())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
			return
		}
		params.Amount = m.Amount
	}
	result, err := h.Service.Initiate(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"payment":      newPaymentResponse(result.Payment),
		"checkout_url": result.CheckoutURL,
		"tx_ref":       result.TxRef,
		"message":      result.Message,
	})
}

func (h PaymentHandler) Status(c *gin.Context) {
	if _, ok := requireAuth(c); !ok {
		return
	}
	result, err := h.Service.Status(c.Request.Context(), c.Param("tx_ref"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       string(result.LocalStatus),
		"verification": result.Verification,
	})
}

// Webhook receives the gateway callback. It is unauthenticated; the payload
// is re-verified against the provider before any state changes.
func (h PaymentHandler) Webhook(c *gin.Context) {
	var payload paymentsvc.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.Service.HandleWebhook(c.Request.Context(), payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tx_ref": result.TxRef,
		"status": string(result.PaymentStatus),
	})
}

func (h PaymentHandler) List(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	items, err := h.Service.ListByUser(c.Request.Context(), domainuser.ID(p.ID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": newPaymentResponses(items), "count": len(items)})
}

func (h PaymentHandler) Get(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	payment, err := h.Service.Get(c.Request.Context(), domainuser.ID(p.ID), domainpayments.PaymentID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPaymentResponse(payment))
}

func (h PaymentHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainpayments.ErrNotFound),
		errors.Is(err, domainbooking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, paymentsvc.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, paymentsvc.ErrMalformedWebhook),
		errors.Is(err, domainpayments.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, paymentsvc.ErrGateway):
		// provider detail stays in the server log only
		if h.Logger != nil {
			h.Logger.Error("payment gateway error", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "payment provider unavailable"})
	default:
		if h.Logger != nil {
			h.Logger.Error("payment operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h PaymentHandler) currency() string {
	if h.Currency == "" {
		return "ETB"
	}
	return h.Currency
}

var _ PaymentHTTP = (*PaymentHandler)(nil)
